package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nullsector/teevault/internal/app"
	"github.com/nullsector/teevault/internal/config"
	"github.com/nullsector/teevault/internal/vault/audit"
	"github.com/nullsector/teevault/internal/vault/domain"
	"github.com/nullsector/teevault/internal/vault/entry"
	"github.com/nullsector/teevault/internal/vault/primitives"
	"github.com/nullsector/teevault/internal/vault/store"
)

func getCommands() []*cli.Command {
	return []*cli.Command{
		initCommand(),
		addCommand(),
		getCommand(),
		listCommand(),
		deleteCommand(),
		rotateEntryCommand(),
		rotateMasterCommand(),
	}
}

var passphraseFlag = &cli.StringFlag{
	Name:    "passphrase",
	Aliases: []string{"p"},
	Sources: cli.EnvVars("VAULT_PASSPHRASE"),
	Usage:   "passphrase for the openssl-pbkdf2 backend",
}

// openEnvelope reads the envelope at the configured path and unseals its
// VMK under the configured backend, verifying the entry-list HMAC. Callers
// must primitives.Scrub the returned VMK.
func openEnvelope(ctx context.Context, container *app.Container, passphrase string) (domain.Envelope, []byte, error) {
	path := store.PathFor(container.Config().VaultDir())
	env, err := store.ReadVault(path)
	if err != nil {
		return domain.Envelope{}, nil, err
	}

	b, err := container.ResolveBackend(env.Metadata.Backend, []byte(passphrase))
	if err != nil {
		return domain.Envelope{}, nil, err
	}

	vmk, err := b.Unseal(ctx, env.SealedVMK)
	if err != nil {
		return domain.Envelope{}, nil, err
	}

	if !store.VerifyHMAC(env, vmk) {
		primitives.Scrub(vmk)
		return domain.Envelope{}, nil, fmt.Errorf("envelope integrity check failed")
	}

	return env, vmk, nil
}

func auditSinkFor(container *app.Container, vmk []byte) audit.Sink {
	if !container.Config().AuditEnabled {
		return audit.NoopSink{}
	}
	logPath := container.Config().VaultDir() + "/audit.log"
	return audit.NewFileAuditSink(logPath, vmk, container.Logger())
}

func record(sink audit.Sink, action audit.Action, label string, typ domain.EntryType, opErr error) {
	sink.Append(context.Background(), audit.Entry{
		Timestamp:  time.Now(),
		Action:     action,
		EntryLabel: label,
		EntryType:  typ,
		Tool:       "teevault-cli",
		Success:    opErr == nil,
		Error:      errString(opErr),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a new vault",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{
				Name:  "backend",
				Value: string(domain.BackendOpenSSLPBKDF2),
				Usage: "sealing backend identifier for the new vault",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			container := app.NewContainer(cfg)
			logger := container.Logger()
			defer closeContainer(container, logger)

			path := store.PathFor(cfg.VaultDir())
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("vault already exists at %s", path)
			}

			backendID := domain.BackendID(cmd.String("backend"))
			if !backendID.IsValid() {
				return fmt.Errorf("unrecognized backend %q", backendID)
			}

			vmk, err := primitives.RandomBytes(32)
			if err != nil {
				return err
			}
			defer primitives.Scrub(vmk)

			b, err := container.ResolveBackend(backendID, []byte(cmd.String("passphrase")))
			if err != nil {
				return err
			}

			sealedVMK, err := b.Seal(ctx, vmk)
			if err != nil {
				return err
			}

			now := time.Now()
			env := domain.Envelope{
				Version: domain.EnvelopeSchemaVersion,
				Metadata: domain.EnvelopeMetadata{
					Backend:    backendID,
					CreatedAt:  now,
					VMKVersion: 1,
				},
				SealedVMK: sealedVMK,
			}
			env = store.TouchEnvelope(env, vmk, now)

			if err := store.WriteVault(path, env); err != nil {
				return err
			}

			record(auditSinkFor(container, vmk), audit.ActionUnlock, "", "", nil)
			logger.Info("vault created", slog.String("path", path), slog.String("backend", string(backendID)))
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a new entry",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{Name: "label", Required: true},
			&cli.StringFlag{Name: "type", Value: string(domain.EntryTypeSecret)},
			&cli.StringFlag{Name: "tags", Usage: "comma-separated tags"},
			&cli.StringFlag{Name: "value", Usage: "plaintext value to encrypt"},
			&cli.StringFlag{Name: "hardware-object-id", Usage: "object identifier if the key material is hardware-resident"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			container := app.NewContainer(cfg)
			logger := container.Logger()
			defer closeContainer(container, logger)

			env, vmk, err := openEnvelope(ctx, container, cmd.String("passphrase"))
			if err != nil {
				return err
			}
			defer primitives.Scrub(vmk)
			sink := auditSinkFor(container, vmk)

			params := entry.AddParams{
				Label:            cmd.String("label"),
				Type:             domain.EntryType(cmd.String("type")),
				Value:            []byte(cmd.String("value")),
				HardwareObjectID: cmd.String("hardware-object-id"),
			}
			params.HardwareResident = params.HardwareObjectID != ""
			if tags := cmd.String("tags"); tags != "" {
				params.Tags = strings.Split(tags, ",")
			}

			newEnv, added, err := entry.Add(env, vmk, params, time.Now())
			record(sink, audit.ActionAdd, params.Label, params.Type, err)
			if err != nil {
				return err
			}

			if err := store.WriteVault(store.PathFor(cfg.VaultDir()), newEnv); err != nil {
				return err
			}
			logger.Info("entry added", slog.String("label", added.Label), slog.Int("version", added.Version))
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:  "get",
		Usage: "Retrieve an entry's plaintext value",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{Name: "label", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			container := app.NewContainer(cfg)
			logger := container.Logger()
			defer closeContainer(container, logger)

			env, vmk, err := openEnvelope(ctx, container, cmd.String("passphrase"))
			if err != nil {
				return err
			}
			defer primitives.Scrub(vmk)
			sink := auditSinkFor(container, vmk)

			label := cmd.String("label")
			ent, plaintext, err := entry.Retrieve(env, vmk, label)
			record(sink, audit.ActionRetrieve, label, ent.Type, err)
			if err != nil {
				return err
			}
			defer primitives.Scrub(plaintext)

			fmt.Println(string(plaintext))
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List entry metadata",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{Name: "type", Usage: "filter by entry type"},
			&cli.StringFlag{Name: "tag", Usage: "filter by tag"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			container := app.NewContainer(cfg)
			logger := container.Logger()
			defer closeContainer(container, logger)

			env, vmk, err := openEnvelope(ctx, container, cmd.String("passphrase"))
			if err != nil {
				return err
			}
			defer primitives.Scrub(vmk)
			sink := auditSinkFor(container, vmk)

			filter := entry.ListFilter{
				Type: domain.EntryType(cmd.String("type")),
				Tag:  cmd.String("tag"),
			}
			items := entry.List(env, filter)
			record(sink, audit.ActionList, "", "", nil)

			for _, m := range items {
				fmt.Printf("%s\t%s\t%s\tv%d\t%s\n", m.Label, m.Type, strings.Join(m.Tags, ","), m.Version, m.ID)
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete an entry",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{Name: "label", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			container := app.NewContainer(cfg)
			logger := container.Logger()
			defer closeContainer(container, logger)

			env, vmk, err := openEnvelope(ctx, container, cmd.String("passphrase"))
			if err != nil {
				return err
			}
			defer primitives.Scrub(vmk)
			sink := auditSinkFor(container, vmk)

			label := cmd.String("label")
			newEnv, err := entry.Delete(env, vmk, label, time.Now())
			record(sink, audit.ActionDelete, label, "", err)
			if err != nil {
				return err
			}

			if err := store.WriteVault(store.PathFor(cfg.VaultDir()), newEnv); err != nil {
				return err
			}
			logger.Info("entry deleted", slog.String("label", label))
			return nil
		},
	}
}

func rotateEntryCommand() *cli.Command {
	return &cli.Command{
		Name:  "rotate-entry",
		Usage: "Rotate a single entry's key material",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{Name: "label", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			container := app.NewContainer(cfg)
			logger := container.Logger()
			defer closeContainer(container, logger)

			env, vmk, err := openEnvelope(ctx, container, cmd.String("passphrase"))
			if err != nil {
				return err
			}
			defer primitives.Scrub(vmk)
			sink := auditSinkFor(container, vmk)

			label := cmd.String("label")
			newEnv, err := entry.RotateEntry(env, vmk, label, time.Now())
			record(sink, audit.ActionRotateEntry, label, "", err)
			if err != nil {
				return err
			}

			if err := store.WriteVault(store.PathFor(cfg.VaultDir()), newEnv); err != nil {
				return err
			}
			logger.Info("entry rotated", slog.String("label", label))
			return nil
		},
	}
}

func rotateMasterCommand() *cli.Command {
	return &cli.Command{
		Name:  "rotate-master",
		Usage: "Rotate the vault master key and re-key every stored entry",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{Name: "new-passphrase", Required: true, Usage: "new passphrase for the openssl-pbkdf2 backend"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			container := app.NewContainer(cfg)
			logger := container.Logger()
			defer closeContainer(container, logger)

			env, oldVMK, err := openEnvelope(ctx, container, cmd.String("passphrase"))
			if err != nil {
				return err
			}
			defer primitives.Scrub(oldVMK)

			newVMK, err := primitives.RandomBytes(32)
			if err != nil {
				return err
			}
			defer primitives.Scrub(newVMK)

			b, err := container.ResolveBackend(env.Metadata.Backend, []byte(cmd.String("new-passphrase")))
			if err != nil {
				return err
			}

			newEnv, err := entry.RotateMaster(ctx, env, oldVMK, newVMK, b, time.Now())
			record(auditSinkFor(container, oldVMK), audit.ActionRotateMaster, "", "", err)
			if err != nil {
				return err
			}

			if err := store.WriteVault(store.PathFor(cfg.VaultDir()), newEnv); err != nil {
				return err
			}
			logger.Info("master key rotated", slog.Int("vmk_version", newEnv.Metadata.VMKVersion))
			return nil
		},
	}
}

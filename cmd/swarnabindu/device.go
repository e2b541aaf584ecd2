package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/swarnabindu/prashan/internal/config"
	"github.com/swarnabindu/prashan/internal/domain/offlinesync"
	"github.com/swarnabindu/prashan/internal/domain/registration"
	"github.com/swarnabindu/prashan/internal/export"
	"github.com/swarnabindu/prashan/internal/form"
	"github.com/swarnabindu/prashan/internal/platform/apiclient"
	"github.com/swarnabindu/prashan/internal/platform/localcache"
	"github.com/swarnabindu/prashan/internal/platform/sandbox"
	"github.com/swarnabindu/prashan/internal/reconcile"
)

// Field-device commands work against the local cache and never need a
// database.

func openCache(cfg *config.Config) (*localcache.Cache, error) {
	c, err := localcache.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", cfg.CachePath, err)
	}
	return c, nil
}

func newClient(cfg *config.Config) *apiclient.Client {
	return apiclient.New(cfg.ServerURL, apiclient.WithDeviceID(cfg.DeviceID))
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage records captured offline",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Validate a record and store it for the next sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			kind, _ := cmd.Flags().GetString("kind")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			now, err := clock(cfg)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer cache.Close()

			var payload map[string]interface{}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if kind != localcache.KindRegistration {
				e, err := cache.Add(ctx, kind, payload)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cached %s %s\n", kind, e.LocalID)
				return nil
			}

			schema := form.DefaultSchema()
			if cfg.QuestionsFile != "" {
				if schema, err = form.LoadSchemaFile(cfg.QuestionsFile); err != nil {
					return err
				}
			}
			reg, res, err := prepareRegistration(schema, form.FormData(payload), now())
			if err != nil {
				return err
			}
			if !res.IsValid {
				printFieldErrors(out, res.Errors)
				return fmt.Errorf("record has %d invalid field(s)", len(res.Errors))
			}
			e, err := cache.AddRegistration(ctx, reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Cached registration %s (%s, %s)\n", e.SerialNo, reg.ChildName, reg.Age)
			return nil
		},
	}
	addCmd.Flags().String("file", "-", "JSON record to add (- for stdin)")
	addCmd.Flags().String("kind", localcache.KindRegistration, "Record kind: registration, screening or dose_log")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show how many records are waiting to sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer cache.Close()

			entries, err := cache.Pending(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d record(s) pending sync\n", len(entries))
			for _, e := range entries {
				if e.LastError != "" {
					fmt.Fprintf(out, "  %s %s: %s\n", e.Kind, e.LocalID, e.LastError)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(addCmd, statusCmd)
	return cmd
}

// prepareRegistration derives age and dose, validates the whole record and
// converts it to a registration. An invalid record is returned as a Result,
// an ineligible or contraindicated child as an error.
func prepareRegistration(schema form.Schema, data form.FormData, now time.Time) (*registration.Registration, form.Result, error) {
	rec := form.ApplyDerived(data, now)
	res, err := form.ValidateRecord(schema, rec, now)
	if err != nil || !res.IsValid {
		return nil, res, err
	}
	return registration.FromFormData(rec), res, nil
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}

func printFieldErrors(w io.Writer, errs map[string]string) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, errs[k])
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Exchange records with the server",
	}
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Upload pending records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.IsDev())
			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer cache.Close()

			ctx := cmd.Context()
			entries, err := cache.Pending(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Nothing to sync")
				return nil
			}

			b, err := buildBatch(entries)
			if err != nil {
				return err
			}
			res, err := newClient(cfg).PushBatch(ctx, b)
			if err != nil {
				logger.Warn().Err(err).Int("pending", len(entries)).Msg("sync push failed, records stay queued")
				return err
			}
			if err := settle(ctx, cache, entries, res); err != nil {
				return err
			}
			fmt.Fprintf(out, "Registrations: %d ok, %d failed\n", res.Registrations.Success, res.Registrations.Failed)
			fmt.Fprintf(out, "Screenings:    %d ok, %d failed\n", res.Screenings.Success, res.Screenings.Failed)
			fmt.Fprintf(out, "Dose logs:     %d ok, %d failed\n", res.DoseLogs.Success, res.DoseLogs.Failed)
			return nil
		},
	}
	cmd.AddCommand(pushCmd)
	return cmd
}

// buildBatch groups cached payloads by kind in cache order.
func buildBatch(entries []localcache.Entry) (offlinesync.Batch, error) {
	var b offlinesync.Batch
	for _, e := range entries {
		raw := json.RawMessage(e.Payload)
		if !json.Valid(raw) {
			return b, fmt.Errorf("cached %s %s is not valid JSON", e.Kind, e.LocalID)
		}
		switch e.Kind {
		case localcache.KindRegistration:
			b.Registrations = append(b.Registrations, raw)
		case localcache.KindScreening:
			b.Screenings = append(b.Screenings, raw)
		case localcache.KindDoseLog:
			b.DoseLogs = append(b.DoseLogs, raw)
		default:
			return b, fmt.Errorf("cached entry %s has unknown kind %q", e.LocalID, e.Kind)
		}
	}
	return b, nil
}

type settler interface {
	MarkSynced(ctx context.Context, localIDs []string) error
	RecordError(ctx context.Context, localID, msg string) error
}

// settle marks every entry the server did not report as failed as synced
// and stores the error text on the rest.
func settle(ctx context.Context, s settler, entries []localcache.Entry, res offlinesync.Results) error {
	failed := res.Failed()
	var ok []string
	for _, e := range entries {
		if !failed[e.LocalID] {
			ok = append(ok, e.LocalID)
		}
	}
	if err := s.MarkSynced(ctx, ok); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	for _, t := range []offlinesync.Tally{res.Registrations, res.Screenings, res.DoseLogs} {
		for _, ie := range t.Errors {
			if err := s.RecordError(ctx, ie.ID, ie.Error); err != nil && !errors.Is(err, localcache.ErrUnknownEntry) {
				return fmt.Errorf("record sync error: %w", err)
			}
		}
	}
	return nil
}

func filterFlags(cmd *cobra.Command) {
	cmd.Flags().String("search", "", "Match name, serial number or contact number")
	cmd.Flags().String("district", "", "Only this district")
	cmd.Flags().String("gender", "", "Only this gender")
}

func filterFromFlags(cmd *cobra.Command) registration.Filter {
	var f registration.Filter
	f.Search, _ = cmd.Flags().GetString("search")
	f.District, _ = cmd.Flags().GetString("district")
	f.Gender, _ = cmd.Flags().GetString("gender")
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// mergedPatients reads the cache and the server and returns the filtered
// union. The server being unreachable is reported on w and is not an error.
func mergedPatients(ctx context.Context, cfg *config.Config, f registration.Filter, w io.Writer) ([]*registration.Registration, error) {
	now, err := clock(cfg)
	if err != nil {
		return nil, err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return nil, err
	}
	defer cache.Close()

	var remote reconcile.RemoteProvider
	if cfg.ServerURL != "" {
		remote = newClient(cfg)
	}
	view, err := reconcile.NewService(cache, remote, newLogger(cfg.IsDev())).Patients(ctx)
	if err != nil {
		return nil, err
	}
	if view.RemoteErr != nil {
		fmt.Fprintln(w, "सर्भरसँग जडान हुन सकेन, अफलाइन डाटा देखाइँदैछ | Server unreachable, showing offline data")
	}
	return f.Apply(view.Patients, now()), nil
}

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "List patients from the local cache and the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			regs, err := mergedPatients(cmd.Context(), cfg, filterFromFlags(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			printPatients(cmd.OutOrStdout(), regs)
			return nil
		},
	}
	filterFlags(cmd)
	return cmd
}

func printPatients(w io.Writer, regs []*registration.Registration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIAL\tNAME\tAGE\tGENDER\tCONTACT\tDISTRICT\tSYNCED")
	for _, r := range regs {
		synced := "no"
		if r.Synced {
			synced = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.SerialNo, r.ChildName, r.Age, r.Gender, r.ContactNumber, r.District, synced)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d patient(s)\n", len(regs))
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the merged patient list",
		RunE: func(cmd *cobra.Command, args []string) error {
			kindFlag, _ := cmd.Flags().GetString("kind")
			formatFlag, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")

			kind, err := export.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			if kind != export.KindRegistration {
				return fmt.Errorf("the device can only export registrations; use GET /api/v1/exports/%s on the server", kind)
			}
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts, err := exportOptions(cfg)
			if err != nil {
				return err
			}
			regs, err := mergedPatients(cmd.Context(), cfg, filterFromFlags(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			records := make([]export.Record, len(regs))
			for i, r := range regs {
				records[i] = r
			}

			w := cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := export.Write(w, format, kind, export.Project(records, kind, opts), opts); err != nil {
				return err
			}
			if outPath != "" && outPath != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d record(s) to %s\n", len(records), outPath)
			}
			return nil
		},
	}
	cmd.Flags().String("kind", string(export.KindRegistration), "Record kind")
	cmd.Flags().String("format", string(export.FormatCSV), "csv, excel or html")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	filterFlags(cmd)
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the local cache with demo children for training",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			now, err := clock(cfg)
			if err != nil {
				return err
			}
			sc := sandbox.DefaultSeedConfig()
			sc.Children, _ = cmd.Flags().GetInt("children")
			sc.ScreeningsPerChild, _ = cmd.Flags().GetInt("screenings")
			sc.FollowUpDosesPerChild, _ = cmd.Flags().GetInt("doses")
			sc.Seed, _ = cmd.Flags().GetInt64("seed")
			ndjson, _ := cmd.Flags().GetBool("ndjson")

			ref := now()
			children := sandbox.NewSeeder(sc, ref).Generate()
			if ndjson {
				return sandbox.ExportNDJSON(cmd.OutOrStdout(), children)
			}

			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer cache.Close()
			n, err := seedCache(cmd.Context(), cache, form.DefaultSchema(), children, ref)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cached %d demo record(s)\n", n)
			return nil
		},
	}
	cmd.Flags().Int("children", 20, "Number of children")
	cmd.Flags().Int("screenings", 1, "Earlier screenings per child")
	cmd.Flags().Int("doses", 1, "Earlier doses per child")
	cmd.Flags().Int64("seed", 0, "Random seed (0 uses the clock)")
	cmd.Flags().Bool("ndjson", false, "Print intake records instead of caching them")
	return cmd
}

type seedTarget interface {
	AddRegistration(ctx context.Context, r *registration.Registration) (*localcache.Entry, error)
	Add(ctx context.Context, kind string, payload map[string]interface{}) (*localcache.Entry, error)
}

// seedCache stores each child the way `cache add` would and links its visits
// by the serial number the cache assigned.
func seedCache(ctx context.Context, c seedTarget, schema form.Schema, children []sandbox.Child, ref time.Time) (int, error) {
	n := 0
	for _, child := range children {
		reg, res, err := prepareRegistration(schema, child.Intake, ref)
		if err != nil {
			return n, err
		}
		if !res.IsValid {
			return n, fmt.Errorf("generated record failed validation: %v", res.Errors)
		}
		e, err := c.AddRegistration(ctx, reg)
		if err != nil {
			return n, err
		}
		n++
		child.SetSerial(e.SerialNo)
		for _, s := range child.Screenings {
			if _, err := c.Add(ctx, localcache.KindScreening, s); err != nil {
				return n, err
			}
			n++
		}
		for _, d := range child.DoseLogs {
			if _, err := c.Add(ctx, localcache.KindDoseLog, d); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	ob "github.com/rockethooks/rockethooks-app-sub001/pkg/onboarding"
	svc "github.com/rockethooks/rockethooks-app-sub001/svc/onboarding"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect and clean up stored drafts",
}

var draftsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired and malformed drafts of every user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		backend, err := svc.OpenStorage(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer backend.Close()

		store := draft.NewStore(backend.Storage, ob.Schemas(), append(cfg.StoreOptions(), draft.WithLogger(log))...)
		removed, err := store.Sweep(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d draft(s) from %s storage\n", removed, backend.Name)
		return err
	},
}

var draftsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored drafts of a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID, _ := cmd.Flags().GetString("user")
		if !svc.ValidUserID(userID) {
			return fmt.Errorf("%w: %q", svc.ErrInvalidUserID, userID)
		}
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		backend, err := svc.OpenStorage(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer backend.Close()

		store := draft.NewStore(backend.Storage, ob.Schemas(),
			append(cfg.StoreOptions(),
				draft.WithPrefix(svc.UserDraftPrefix(cfg.DraftPrefix, userID)),
				draft.WithLogger(log),
			)...)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tVERSION\tSAVED\tAGE\tSTATUS\tDATA")
		for _, step := range ob.Steps {
			wrapper, err := store.Inspect(ctx, step)
			switch {
			case err != nil:
				fmt.Fprintf(w, "%s\t-\t-\t-\tmalformed: %v\t-\n", step, err)
				continue
			case wrapper.Timestamp == 0:
				fmt.Fprintf(w, "%s\t-\t-\t-\tnone\t-\n", step)
				continue
			}
			age, _ := store.Age(ctx, step)
			status := "valid"
			if wrapper.Expired(time.Now(), store.TTL()) {
				status = "expired"
			} else if schema, ok := store.Schema(step); ok && schema.Check(wrapper.Data) != nil {
				status = "invalid"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				step, wrapper.Version, wrapper.SavedAt().Format(time.RFC3339), age.Round(time.Second), status, wrapper.Data)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(draftsCmd)
	draftsCmd.AddCommand(draftsSweepCmd, draftsShowCmd)
	draftsShowCmd.Flags().String("user", "", "User id whose drafts to show")
	_ = draftsShowCmd.MarkFlagRequired("user")
}

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/app"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(activateCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build <chatbot-id>",
	Short: "Build a new knowledge-base snapshot",
	Long: `Build indexes every document of the chatbot into a fresh collection and
activates the resulting snapshot. The previous snapshot keeps serving if the
build fails.

Examples:
  kbctl build 6f1c8a52-0d7e-4c1b-9a53-0b8d8e2f4a11`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

var jobCmd = &cobra.Command{
	Use:   "job <job-id>",
	Short: "Show the status of a queued build",
	Args:  cobra.ExactArgs(1),
	RunE:  runJob,
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots <chatbot-id>",
	Short: "List the snapshots of a chatbot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshots,
}

var activateCmd = &cobra.Command{
	Use:   "activate <snapshot-id>",
	Short: "Make a snapshot the active one of its chatbot",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivate,
}

func runBuild(cmd *cobra.Command, args []string) error {
	chatbotID, err := parseID("chatbot", args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		started := time.Now()
		result, err := a.Services.Knowledge.Build(ctx, operator, chatbotID)
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		if outputJSON {
			return printJSON(result.Snapshot)
		}
		fmt.Printf("Built %s in %s\n", result.Snapshot.Name, time.Since(started).Round(time.Millisecond))
		return printSnapshots([]domain.SnapshotInfo{*result.Snapshot})
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	jobID, err := parseID("job", args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		job, err := a.Services.Knowledge.JobStatus(ctx, operator, jobID)
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(job)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "JOB\t%s\n", job.ID)
		fmt.Fprintf(w, "CHATBOT\t%s\n", job.ChatbotID)
		fmt.Fprintf(w, "STATUS\t%s\n", job.Status)
		if job.SnapshotID != nil {
			fmt.Fprintf(w, "SNAPSHOT\t%s\n", job.SnapshotID)
		}
		if job.Error != "" {
			fmt.Fprintf(w, "ERROR\t%s\n", job.Error)
		}
		fmt.Fprintf(w, "UPDATED\t%s\n", job.UpdatedAt.Format(time.RFC3339))
		return w.Flush()
	})
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	chatbotID, err := parseID("chatbot", args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		snaps, err := a.Services.Knowledge.ListSnapshots(ctx, operator, chatbotID)
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(snaps)
		}
		if len(snaps) == 0 {
			fmt.Println("No snapshots")
			return nil
		}
		return printSnapshots(snaps)
	})
}

func runActivate(cmd *cobra.Command, args []string) error {
	snapshotID, err := parseID("snapshot", args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		info, err := a.Services.Knowledge.Activate(ctx, operator, snapshotID)
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(info)
		}
		fmt.Printf("Activated %s (version %d)\n", info.Name, info.Version)
		return nil
	})
}

func printSnapshots(snaps []domain.SnapshotInfo) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tDOCS\tCHUNKS\tACTIVE\tLOCATOR")
	for _, s := range snaps {
		active := ""
		if s.IsActive {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			s.ID, s.Name, s.Version, s.DocumentCount, s.ChunkCount, active, s.Locator)
	}
	return w.Flush()
}

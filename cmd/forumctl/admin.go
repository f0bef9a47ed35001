package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
)

var permsCmd = &cobra.Command{
	Use:   "perms",
	Short: "Show what the signed-in user may do in the admin panel",
	Args:  cobra.NoArgs,
	RunE:  runPerms,
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List content reports (moderators only)",
	Args:  cobra.NoArgs,
	RunE:  runReports,
}

var reportsStatus string

func init() {
	rootCmd.AddCommand(permsCmd, reportsCmd)
	reportsCmd.Flags().StringVar(&reportsStatus, "status", "", "pending, approved or rejected")
}

func runPerms(cmd *cobra.Command, args []string) error {
	u, err := current.signIn(cmd.Context())
	if err != nil {
		return err
	}
	p := service.DerivePermissions(u)

	fmt.Printf("User: %s\n\n", u.DisplayName())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range []struct {
		name string
		ok   bool
	}{
		{"superuser", p.IsSuperuser},
		{"admin", p.IsAdmin},
		{"organizer", p.IsOrganizer},
		{"moderator", p.IsModerator},
		{"access admin panel", p.CanAccessAdmin},
		{"manage users", p.CanManageUsers},
		{"manage roles", p.CanManageRoles},
		{"moderate forum", p.CanModerateForum},
		{"manage group buys", p.CanManageGroupBuys},
		{"approve group buys", p.CanApproveGroupBuys},
		{"view analytics", p.CanViewAnalytics},
		{"own group buys only", p.CanManageOwnGroupBuysOnly},
		{"manage settings", p.CanManageSettings},
	} {
		mark := color.RedString("no")
		if row.ok {
			mark = color.GreenString("yes")
		}
		fmt.Fprintf(w, "%s\t%s\n", row.name, mark)
	}
	return w.Flush()
}

func runReports(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, err := current.requireUser(ctx); err != nil {
		return err
	}

	moderation := service.NewModerationService(current.client, current.logger)
	reports, err := moderation.ListReports(ctx, current.sess, model.ReportStatus(reportsStatus))
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No reports.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTYPE\tCONTENT\tREASON")
	for _, r := range reports {
		status := string(r.Status)
		if r.Status == model.ReportPending {
			status = color.YellowString(status)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.ID, status, r.ContentType, r.ContentID, r.Reason)
	}
	return w.Flush()
}

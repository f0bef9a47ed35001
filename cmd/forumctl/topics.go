package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sakif/forumfront/internal/forum"
)

var (
	topicsCategory string
	topicsSearch   string
	topicsSort     string
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics",
	Long: `List forum topics, newest first by default.

Hot topics (over 100 views or over 10 replies) are shown in red.`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.Flags().StringVarP(&topicsCategory, "category", "c", forum.AllCategories, "category name, or \"all\"")
	topicsCmd.Flags().StringVarP(&topicsSearch, "search", "s", "", "only titles containing this text")
	topicsCmd.Flags().StringVar(&topicsSort, "sort", string(forum.SortNewest), "newest, popular or active")
}

func runTopics(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, err := current.signIn(ctx); err != nil {
		return err
	}

	f := forum.New(current.client, current.logger)
	if err := f.Load(current.sess.Context(ctx)); err != nil {
		// One list may still have loaded; show what there is.
		color.Yellow("warning: %v", err)
	}

	views := f.Processed(forum.Filter{
		Category: topicsCategory,
		Search:   topicsSearch,
		Sort:     forum.ParseSort(topicsSort),
	})
	if len(views) == 0 {
		fmt.Println("No topics found.")
		return nil
	}

	hot := color.New(color.FgRed, color.Bold)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tVIEWS\tREPLIES\tLIKES\tDATE")
	for _, v := range views {
		title := v.Title
		if v.Hot {
			title = hot.Sprint("🔥 " + title)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			v.ID, title, v.CategoryName, v.ViewCount, v.ReplyCount, v.LikeCount, v.DateLabel)
	}
	return w.Flush()
}

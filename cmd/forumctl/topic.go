package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sakif/forumfront/internal/forum"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Read, create and reply to topics",
}

var topicShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a topic with its replies and attachments",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopicShow,
}

var topicNewCmd = &cobra.Command{
	Use:   "new <category-id> <title> <content>",
	Short: "Create a topic",
	Args:  cobra.ExactArgs(3),
	RunE:  runTopicNew,
}

var topicReplyCmd = &cobra.Command{
	Use:   "reply <id> [text]",
	Short: "Reply to a topic, optionally with attachments",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTopicReply,
}

var topicLikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Like a topic (or a reply with --reply)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopicLike,
}

var (
	attachFiles []string
	likeReply   bool
	unlike      bool
)

func init() {
	rootCmd.AddCommand(topicCmd)
	topicCmd.AddCommand(topicShowCmd, topicNewCmd, topicReplyCmd, topicLikeCmd)

	topicNewCmd.Flags().StringSliceVarP(&attachFiles, "file", "f", nil, "file to attach (repeatable)")
	topicReplyCmd.Flags().StringSliceVarP(&attachFiles, "file", "f", nil, "file to attach (repeatable)")
	topicLikeCmd.Flags().BoolVar(&likeReply, "reply", false, "the id is a reply id")
	topicLikeCmd.Flags().BoolVar(&unlike, "undo", false, "remove the like instead")
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", raw)
	}
	return id, nil
}

func runTopicShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := current.signIn(ctx); err != nil {
		return err
	}

	details := service.NewTopicDetailService(current.client, current.auth, 0, current.logger)
	d, err := details.Load(ctx, current.sess, id)
	if err != nil {
		return err
	}
	printDetail(d)
	return nil
}

func printDetail(d *service.TopicDetail) {
	faint := color.New(color.Faint)
	now := time.Now()

	if d.Topic.IsPinned {
		fmt.Print("📌 ")
	}
	if d.Hot {
		color.New(color.FgRed, color.Bold).Printf("🔥 %s\n", d.Topic.Title)
	} else {
		fmt.Println(d.Topic.Title)
	}
	liked := ""
	if d.Liked {
		liked = " (you liked this)"
	}
	faint.Printf("by %s · %s · %d views · %d likes%s\n\n",
		d.Topic.Author.DisplayName(), forum.FormatDate(d.Topic.CreatedAt.Time, now),
		d.Topic.ViewCount, d.Topic.LikeCount, liked)
	fmt.Println(d.Topic.Content)
	printMedia(faint, d.TopicMedia)
	fmt.Println()

	for _, r := range d.Replies {
		fmt.Printf("─────────────────────────────────\n")
		faint.Printf("#%d %s · %s · %d likes\n", r.ID, r.Author.DisplayName(), forum.FormatDate(r.CreatedAt.Time, now), r.LikeCount)
		fmt.Println(r.Content)
		printMedia(faint, d.ReplyMedia[r.ID])
		fmt.Println()
	}
	if len(d.Replies) == 0 {
		fmt.Println("No replies yet.")
	}
}

func printMedia(faint *color.Color, media []model.Media) {
	for _, m := range media {
		link := m.URL
		if link == "" {
			link = m.FilePath
		}
		faint.Printf("  📎 %s %s\n", m.FileName, link)
	}
}

func readAttachments(paths []string) ([]model.Upload, error) {
	uploads := make([]model.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading attachment: %w", err)
		}
		uploads = append(uploads, model.Upload{
			FileName:    filepath.Base(p),
			ContentType: mime.TypeByExtension(filepath.Ext(p)),
			Data:        data,
		})
	}
	return uploads, nil
}

func runTopicNew(cmd *cobra.Command, args []string) error {
	categoryID, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := current.requireUser(ctx); err != nil {
		return err
	}
	files, err := readAttachments(attachFiles)
	if err != nil {
		return err
	}

	f := forum.New(current.client, current.logger)
	t, err := f.CreateTopic(current.sess.Context(ctx), model.NewTopic{
		Title:      args[1],
		Content:    args[2],
		CategoryID: categoryID,
		Files:      files,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	color.Green("Created topic: %s", t.Title)
	fmt.Printf("ID: %d\n", t.ID)
	return nil
}

func runTopicReply(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	text := ""
	if len(args) > 1 {
		text = args[1]
	}
	ctx := cmd.Context()
	if _, err := current.requireUser(ctx); err != nil {
		return err
	}
	files, err := readAttachments(attachFiles)
	if err != nil {
		return err
	}

	details := service.NewTopicDetailService(current.client, current.auth, 0, current.logger)
	d, err := details.Load(ctx, current.sess, id)
	if err != nil {
		return err
	}
	reply, err := details.SubmitReply(ctx, current.sess, id, text, files)
	if err != nil {
		return fmt.Errorf("failed to post reply: %w", err)
	}
	d.AddReply(*reply)

	color.Green("Posted reply #%d (%d replies now)", reply.ID, len(d.Replies))
	return nil
}

func runTopicLike(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := current.requireUser(ctx); err != nil {
		return err
	}

	target := model.LikeTopic
	if likeReply {
		target = model.LikeReply
	}
	likes := service.NewLikeService(current.client, current.logger)
	res, err := likes.Toggle(ctx, current.sess, target, id, !unlike)
	if err != nil {
		if res.Notice != "" {
			color.Yellow("%s", res.Notice)
		}
		return err
	}

	verb := "Liked"
	if unlike {
		verb = "Unliked"
	}
	fmt.Printf("%s %s %d (%d likes)\n", verb, target, id, res.LikeCount)
	return nil
}

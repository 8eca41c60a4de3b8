package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"neurabot/internal/botclient"
	"neurabot/internal/session"
)

var sendMode string

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a single message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		sess, err := d.store.Load()
		if err != nil {
			return err
		}
		if err := d.tasks.Load(); err != nil {
			return err
		}

		text := args[0]
		for _, arg := range args[1:] {
			text += " " + arg
		}

		mode := sendMode
		if mode == "" {
			mode = d.cfg.Mode
		}
		if _, err := d.store.Append(sess.ID, text, session.SenderUser, true); err != nil {
			return err
		}

		client := botclient.New(d.cfg.ServerURL, botclient.WithLogger(logger))
		ctx, cancel := context.WithTimeout(cmd.Context(), 35*time.Second)
		defer cancel()

		reply, err := client.Send(ctx, text, mode)
		if err != nil {
			logger.Warn("chat request failed", zap.Error(err))
			fmt.Println("⚠️ Oops! Could not connect to server.")
			return nil
		}

		if _, err := d.store.Append(sess.ID, reply.Reply, session.SenderBot, true); err != nil {
			return err
		}
		fmt.Println(reply.Reply)

		if reply.Task != "" {
			if err := d.tasks.Add(reply.Task); err != nil {
				return err
			}
		}
		if reply.ShowTasks {
			fmt.Println()
			fmt.Println(d.tasks.Summary())
		}
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved chat sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.store.Load(); err != nil {
			return err
		}

		activeID := d.store.ActiveID()
		for _, sess := range d.store.Sorted() {
			marker := " "
			if sess.ID == activeID {
				marker = "*"
			}
			fmt.Printf("%s %-24s  %s  (%d messages)\n",
				marker, sess.ID, sess.Title, len(sess.Messages))
		}
		return nil
	},
}

var (
	exportAll bool
	exportDir string
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Write a session transcript to a text file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.store.Load(); err != nil {
			return err
		}

		dir := exportDir
		if dir == "" {
			dir = d.cfg.ExportDir
		}
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}

		writeOne := func(id string) error {
			content, err := d.store.Export(id)
			if err != nil {
				return fmt.Errorf("session %s: %w", id, err)
			}
			path := filepath.Join(dir, fmt.Sprintf("neurabot_chat_%s.txt", id))
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("session %s: %w", id, err)
			}
			fmt.Println(path)
			return nil
		}

		if exportAll {
			var g errgroup.Group
			g.SetLimit(4)
			for _, sess := range d.store.Sorted() {
				id := sess.ID
				g.Go(func() error { return writeOne(id) })
			}
			return g.Wait()
		}

		id := d.store.ActiveID()
		if len(args) == 1 {
			id = args[0]
		}
		return writeOne(id)
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Print the task list",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.tasks.Load(); err != nil {
			return err
		}
		fmt.Println(d.tasks.Summary())
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendMode, "mode", "", "chat mode for this message")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every session")
	exportCmd.Flags().StringVar(&exportDir, "out", "", "output directory")
}

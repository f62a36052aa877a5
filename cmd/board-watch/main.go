package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/internal/models"
	"github.com/noah-isme/housing-board-api/pkg/client"
)

var (
	serverURL   string
	studentID   int64
	futureOnly  bool
	autoRefresh bool
	interval    time.Duration
	verbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "board-watch",
	Short: "Follow the housing board from a terminal",
	Long: `board-watch keeps the announcement list and its readers in sync with the server,
polling on an interval and printing a notice whenever the light or the alarm is triggered.`,
	SilenceUsage: true,
	RunE:         runWatch,
}

var readCmd = &cobra.Command{
	Use:   "read <announcement-id>",
	Short: "Mark an announcement as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid announcement id %q", args[0])
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.MarkRead(cmd.Context(), id, studentID); err != nil {
			return err
		}
		readers, err := c.Readers(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("Gelezen: %s\n", readerLine(readers))
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [description]",
	Short: "Report an unannounced party",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		id, err := c.Report(cmd.Context(), dto.CreateReportRequest{StudentID: studentID, Description: strings.Join(args, " ")})
		if err != nil {
			return err
		}
		fmt.Printf("Melding verstuurd (#%d)\n", id)
		return nil
	},
}

var lightsCmd = &cobra.Command{
	Use:   "lights <status>",
	Short: "Send a raw lights status to the actuator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		sub, err := c.Subscribe(ctx)
		if err != nil {
			return err
		}
		defer sub.Close() //nolint:errcheck
		return sub.SetLights(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3001", "board server base URL")
	rootCmd.PersistentFlags().Int64Var(&studentID, "student", 1, "id of the viewing student")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log refresh failures")
	rootCmd.Flags().BoolVar(&futureOnly, "future", false, "hide past announcements")
	rootCmd.Flags().BoolVar(&autoRefresh, "auto-refresh", true, "refresh the list when a trigger is pushed")
	rootCmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "poll interval, 0 disables polling")

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(lightsCmd)
}

func newClient() (*client.Client, error) {
	return client.New(client.Config{BaseURL: serverURL})
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logr := newLogger()
	defer logr.Sync() //nolint:errcheck

	c, err := newClient()
	if err != nil {
		return err
	}
	var out sync.Mutex
	var rec *client.Reconciler
	rec = client.NewReconciler(c, client.ReconcilerOptions{
		StudentID:   studentID,
		FutureOnly:  futureOnly,
		AutoRefresh: autoRefresh,
		OnRefresh: func() {
			out.Lock()
			defer out.Unlock()
			render(rec)
		},
		Logger: logr,
	})

	var events <-chan client.Event
	sub, err := c.Subscribe(ctx)
	if err != nil {
		logr.Warn("realtime unavailable, polling only", zap.Error(err))
	} else {
		defer sub.Close() //nolint:errcheck
		events = sub.Events()
	}

	if err := rec.Refresh(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				notes := rec.DrainNotifications()
				out.Lock()
				for _, n := range notes {
					fmt.Printf("[%s] %s\n", n.ReceivedAt.Format("15:04:05"), noticeText(n))
				}
				out.Unlock()
			}
		}
	}()

	if err := rec.Run(ctx, events, interval); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func render(rec *client.Reconciler) {
	fmt.Println("== Aankondigingen ==")
	items := rec.Items()
	if len(items) == 0 {
		fmt.Println("  (geen)")
	}
	for _, it := range items {
		a := it.Announcement
		fmt.Printf("#%d %s (%s) door %s [%s]\n", a.ID, a.Title, a.Datetime.Local().Format("2006-01-02 15:04"), a.Organizer, it.State)
		if a.Description != "" {
			fmt.Printf("    %s\n", a.Description)
		}
		fmt.Printf("    Gelezen: %s\n", readerLine(it.Readers))
	}
}

func readerLine(readers []string) string {
	if len(readers) == 0 {
		return "Niemand"
	}
	return strings.Join(readers, ", ")
}

func noticeText(n client.Notification) string {
	switch n.Kind {
	case models.EventTriggerLight:
		return "HARDWARE TRIGGER: light turned ON"
	case models.EventTriggerAlarm:
		return "HARDWARE TRIGGER: alarm turned ON"
	}
	return string(n.Kind)
}

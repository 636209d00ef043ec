package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"medwarehouse/internal/loader"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load raw scrape output into Postgres",
	}
	cmd.AddCommand(newLoadMessagesCmd())
	cmd.AddCommand(newLoadDetectionsCmd())
	return cmd
}

func newLoadMessagesCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Load scraped message JSON files into raw.telegram_messages",
		Long: `Walk a directory tree of channel scrape exports and land every record in
raw.telegram_messages. Files named *_manifest.json are skipped, records
failing validation are counted and dropped, and re-loading the same files
is safe (ON CONFLICT DO NOTHING on message_id + channel_username).`,
		Example: `  # Load every channel export under the scrape output directory
  medwarehouse load messages --dir data/raw/telegram_messages`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadMessages(cmd, dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "data/raw/telegram_messages", "Directory tree of scraped *.json files")

	return cmd
}

func runLoadMessages(cmd *cobra.Command, dir string) error {
	logger := newLogger()

	db, err := openPostgres(logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	if err := loader.EnsureSchema(ctx, db); err != nil {
		return err
	}

	l := loader.NewMessagesLoader(db, logger, loader.NewMetrics(newMetricsCollector()))
	res, err := l.LoadDir(ctx, dir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILES\tRECORDS\tINSERTED\tCONFLICTED\tINVALID")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", res.Files, res.Records, res.Inserted, res.Conflicted, res.Invalid)
	return w.Flush()
}

func newLoadDetectionsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "detections",
		Short: "Load an image detection CSV into raw.image_detections",
		Long: `Read one CSV of image classification results and land every row in
raw.image_detections. Columns are resolved by header name, rows failing
validation are counted and dropped, and re-loading the same file is safe
(ON CONFLICT DO NOTHING on message_id + detected_class).`,
		Example: `  # Load the latest model output
  medwarehouse load detections --file data/raw/yolo_detections.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadDetections(cmd, file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "data/raw/yolo_detections.csv", "Detection CSV file")

	return cmd
}

func runLoadDetections(cmd *cobra.Command, file string) error {
	logger := newLogger()

	db, err := openPostgres(logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	if err := loader.EnsureSchema(ctx, db); err != nil {
		return err
	}

	l := loader.NewDetectionsLoader(db, logger, loader.NewMetrics(newMetricsCollector()))
	res, err := l.LoadFile(ctx, file)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RECORDS\tINSERTED\tCONFLICTED\tINVALID")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", res.Records, res.Inserted, res.Conflicted, res.Invalid)
	return w.Flush()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/unclebandit/cpas-demos/internal/config"
	"github.com/unclebandit/cpas-demos/internal/csvio"
	"github.com/unclebandit/cpas-demos/internal/db"
	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/logger"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/queue"
	"github.com/unclebandit/cpas-demos/internal/repository"
	"github.com/unclebandit/cpas-demos/internal/service"
)

type boosterFlags struct {
	Mode               string
	AccessToken        string
	IGAccountID        string
	CreatorUsername    string
	AdAccountID        string
	FacebookPageID     string
	InputCSV           string
	OutputCSV          string
	OnlyWithPermission bool
	IncludeMetrics     bool
	Limit              int
	LogLevel           string
	AMQPURL            string
	DatabaseURL        string
}

// newRootCommand builds the booster CLI. loadConfig is swapped out in tests.
func newRootCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	flags := &boosterFlags{}

	cmd := &cobra.Command{
		Use:   "booster",
		Short: "Partnership Ads Booster",
		Long: `Fetch the advertisable medias of an Instagram account, or turn a CSV of
medias into paused partnership ads.

Examples:
  booster --mode fetch --access-token TOKEN --ig-account-id 1784... --include-metrics
  booster --mode create --access-token TOKEN --ig-account-id 1784... \
      --ad-account-id 123 --facebook-page-id 456 --input-csv ads.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Mode, "mode", "", "fetch: list advertisable medias; create: create ads from --input-csv")
	f.StringVar(&flags.AccessToken, "access-token", "", "Graph API access token")
	f.StringVar(&flags.IGAccountID, "ig-account-id", "", "Instagram account id")
	f.StringVar(&flags.CreatorUsername, "creator-username", "", "only medias from this creator (fetch)")
	f.StringVar(&flags.AdAccountID, "ad-account-id", "", "ad account id, with or without act_ (create)")
	f.StringVar(&flags.FacebookPageID, "facebook-page-id", "", "sponsor Facebook page id (create)")
	f.StringVar(&flags.InputCSV, "input-csv", "", "input CSV (create)")
	f.StringVar(&flags.OutputCSV, "output-csv", "", "output CSV (default advertisable_medias.csv or created_ads_output.csv)")
	f.BoolVar(&flags.OnlyWithPermission, "only-with-permission", false, "keep only medias with partnership ad permission (fetch)")
	f.BoolVar(&flags.IncludeMetrics, "include-metrics", false, "fetch likes, comments, reach, impressions and saves (fetch)")
	f.IntVar(&flags.Limit, "limit", 0, "maximum number of medias, 0 for all (fetch)")
	f.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&flags.AMQPURL, "amqp-url", "", "publish run results to RabbitMQ (create)")
	f.StringVar(&flags.DatabaseURL, "database-url", "", "write run results to Postgres (create)")
	cmd.MarkFlagRequired("mode")
	cmd.MarkFlagRequired("access-token")
	cmd.MarkFlagRequired("ig-account-id")

	return cmd
}

// validate runs before anything touches the network
func (f *boosterFlags) validate() error {
	switch f.Mode {
	case "fetch":
		if f.OutputCSV == "" {
			f.OutputCSV = "advertisable_medias.csv"
		}
	case "create":
		var missing []string
		if f.AdAccountID == "" {
			missing = append(missing, "--ad-account-id")
		}
		if f.FacebookPageID == "" {
			missing = append(missing, "--facebook-page-id")
		}
		if f.InputCSV == "" {
			missing = append(missing, "--input-csv")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s required for create mode", strings.Join(missing, ", "))
		}
		if f.OutputCSV == "" {
			f.OutputCSV = "created_ads_output.csv"
		}
	default:
		return fmt.Errorf("invalid --mode %q; expected fetch|create", f.Mode)
	}
	if f.Limit < 0 {
		return errors.New("--limit must not be negative")
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, flags *boosterFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	client := graph.NewClient(cfg.Graph, flags.AccessToken)
	repo := &repository.MediaRepository{Client: client, CreativeVersion: cfg.Graph.CreativeVersion}

	if flags.Mode == "fetch" {
		return runFetch(ctx, log, repo, flags)
	}

	recorder, closeRecorder, err := openRecorder(ctx, cfg, flags, log)
	if err != nil {
		return err
	}
	defer closeRecorder()

	return runCreate(ctx, log, &service.BoosterService{MediaRepo: repo, Recorder: recorder, Log: log}, flags)
}

func runFetch(ctx context.Context, log *logrus.Logger, repo repository.MediaRepositoryInterface, flags *boosterFlags) error {
	svc := &service.FetchService{MediaRepo: repo, Log: log}
	records, err := svc.FetchAdvertisableMedias(ctx, model.FetchMediasRequest{
		IGAccountID:        flags.IGAccountID,
		CreatorUsername:    flags.CreatorUsername,
		OnlyWithPermission: flags.OnlyWithPermission,
		IncludeMetrics:     flags.IncludeMetrics,
		Limit:              flags.Limit,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	if err := csvio.WriteMediasFile(flags.OutputCSV, records, flags.IncludeMetrics); err != nil {
		return err
	}
	log.Infof("Successfully saved %d advertisable medias to %s", len(records), flags.OutputCSV)
	return nil
}

func runCreate(ctx context.Context, log *logrus.Logger, svc *service.BoosterService, flags *boosterFlags) error {
	log.Infof("Reading input CSV: %s", flags.InputCSV)
	rows, err := csvio.ReadInputFile(flags.InputCSV)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		log.Info("No rows found in input CSV")
		return nil
	}

	result, err := svc.CreateAds(ctx, model.CreateAdsRequest{
		IGAccountID:    flags.IGAccountID,
		AdAccountID:    flags.AdAccountID,
		FacebookPageID: flags.FacebookPageID,
	}, rows, flags.InputCSV)
	if err != nil {
		return err
	}

	if err := csvio.WriteResultsFile(flags.OutputCSV, result.Rows); err != nil {
		return err
	}
	log.Infof("Results saved to: %s", flags.OutputCSV)
	return nil
}

// openRecorder picks the run ledger sink: RabbitMQ when --amqp-url is set,
// otherwise Postgres when --database-url is set, otherwise none.
func openRecorder(ctx context.Context, cfg *config.Config, flags *boosterFlags, log *logrus.Logger) (service.RunRecorder, func(), error) {
	switch {
	case flags.AMQPURL != "":
		q, err := queue.DialAMQP(flags.AMQPURL, log)
		if err != nil {
			return nil, nil, err
		}
		return &queue.EventRecorder{Queue: q, Topic: cfg.ResultsQueue}, func() { q.Close() }, nil
	case flags.DatabaseURL != "":
		conn, err := db.Open(ctx, flags.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return &repository.LedgerRepository{DB: conn}, func() { conn.Close() }, nil
	}
	return nil, func() {}, nil
}

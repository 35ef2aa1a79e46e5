package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/statsbiblioteket/sb-bitrepository-client/action"
	"github.com/statsbiblioteket/sb-bitrepository-client/client"
)

// discardEvents satisfies the event handler the protocol client requires;
// listing submits no transfers, so no events can arrive.
type discardEvents struct{}

func (discardEvents) HandleEvent(ctx context.Context, e client.Event) error { return nil }

func newListCmd() *cobra.Command {
	var (
		pillarID     string
		output       string
		localPrefix  string
		remotePrefix string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Harvest a pillar's checksum listing into a sum file",
		Long: `Harvest the checksum listing of one pillar into a new file in md5sum
format. File ids are rewritten to local paths by swapping the remote prefix
for the local one; ids outside the remote prefix are skipped. The output
file must not already exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			rest := client.NewRestClient(cfg.RepositoryURL, discardEvents{}, 1, log)
			defer rest.Stop()

			lister := action.NewListAction(rest, cfg.CollectionID, pillarID,
				localPrefix, remotePrefix, output, cfg.PageSize, log)

			if err := lister.Perform(cmd.Context()); err != nil {
				return err
			}
			log.Info("checksum listing complete", "pillar", pillarID, "output", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pillarID, "pillar", "p", "", "pillar to query")
	cmd.Flags().StringVarP(&output, "output", "o", "", "sum file to write")
	cmd.Flags().StringVar(&localPrefix, "local-prefix", "", "prefix of local paths")
	cmd.Flags().StringVar(&remotePrefix, "remote-prefix", "", "prefix of repository file ids")
	cmd.MarkFlagRequired("pillar")
	cmd.MarkFlagRequired("output")
	return cmd
}

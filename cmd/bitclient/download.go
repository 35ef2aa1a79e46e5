package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statsbiblioteket/sb-bitrepository-client/client"
	"github.com/statsbiblioteket/sb-bitrepository-client/config"
	"github.com/statsbiblioteket/sb-bitrepository-client/exchange"
	"github.com/statsbiblioteket/sb-bitrepository-client/fileid"
	"github.com/statsbiblioteket/sb-bitrepository-client/job"
	"github.com/statsbiblioteket/sb-bitrepository-client/sumfile"
)

func newDownloadCmd() *cobra.Command {
	var (
		sumFilePath  string
		localPrefix  string
		remotePrefix string
		useTUI       bool
	)

	cmd := &cobra.Command{
		Use:   "download [fileID...]",
		Short: "Download files from the repository",
		Long: `Download files from the repository to local paths.

Files are named either as repository file ids on the command line or through
a checksum file in md5sum format (--sum-file), typically produced by the
list command. File ids and local paths are mapped onto each other by
swapping the remote prefix for the local one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			list, err := downloadJobs(cfg, args, sumFilePath, localPrefix, remotePrefix)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("nothing to download; name file ids or use --sum-file")
			}
			return runTransfers(cfg, log, client.OpGet, list, useTUI)
		},
	}

	cmd.Flags().StringVarP(&sumFilePath, "sum-file", "f", "", "checksum file listing what to download")
	cmd.Flags().StringVar(&localPrefix, "local-prefix", "", "prefix of local paths")
	cmd.Flags().StringVar(&remotePrefix, "remote-prefix", "", "prefix of repository file ids")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show a live dashboard instead of log output")
	return cmd
}

// downloadJobs builds transfer jobs from command line file ids and an
// optional checksum file.
func downloadJobs(cfg *config.Config, args []string, sumFilePath, localPrefix, remotePrefix string) ([]job.Job, error) {
	var list []job.Job

	for _, fileID := range args {
		localPath, err := fileid.RemoteToLocal(fileID, localPrefix, remotePrefix)
		if err != nil {
			return nil, err
		}
		list = append(list, job.New(localPath, fileID, "", exchange.JoinURL(cfg.ExchangeURL, fileID)))
	}

	if sumFilePath != "" {
		entries, err := sumfile.ReadFile(sumFilePath)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			fileID, err := fileid.LocalToRemote(e.Path, localPrefix, remotePrefix)
			if err != nil {
				return nil, err
			}
			list = append(list, job.New(e.Path, fileID, e.Checksum, exchange.JoinURL(cfg.ExchangeURL, fileID)))
		}
	}

	return list, nil
}

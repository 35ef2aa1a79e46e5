package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statsbiblioteket/sb-bitrepository-client/client"
	"github.com/statsbiblioteket/sb-bitrepository-client/config"
	"github.com/statsbiblioteket/sb-bitrepository-client/exchange"
	"github.com/statsbiblioteket/sb-bitrepository-client/fileid"
	"github.com/statsbiblioteket/sb-bitrepository-client/job"
	"github.com/statsbiblioteket/sb-bitrepository-client/sumfile"
)

func newUploadCmd() *cobra.Command {
	var (
		sumFilePath  string
		localPrefix  string
		remotePrefix string
		useTUI       bool
	)

	cmd := &cobra.Command{
		Use:   "upload [file...]",
		Short: "Upload local files into the repository",
		Long: `Upload local files into the repository.

Files are named on the command line or through a checksum file in md5sum
format (--sum-file). Each file is staged on the file exchange and the
repository is then asked to ingest it under the file id derived from the
local path by swapping the local prefix for the remote one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			list, err := uploadJobs(cfg, args, sumFilePath, localPrefix, remotePrefix)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("nothing to upload; name files or use --sum-file")
			}
			return runTransfers(cfg, log, client.OpPut, list, useTUI)
		},
	}

	cmd.Flags().StringVarP(&sumFilePath, "sum-file", "f", "", "checksum file listing what to upload")
	cmd.Flags().StringVar(&localPrefix, "local-prefix", "", "prefix of local paths")
	cmd.Flags().StringVar(&remotePrefix, "remote-prefix", "", "prefix of repository file ids")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show a live dashboard instead of log output")
	return cmd
}

// uploadJobs builds transfer jobs from local paths and an optional checksum
// file, verifying every local file exists up front.
func uploadJobs(cfg *config.Config, args []string, sumFilePath, localPrefix, remotePrefix string) ([]job.Job, error) {
	type candidate struct {
		path     string
		checksum string
	}
	var candidates []candidate

	for _, path := range args {
		candidates = append(candidates, candidate{path: path})
	}
	if sumFilePath != "" {
		entries, err := sumfile.ReadFile(sumFilePath)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			candidates = append(candidates, candidate{path: e.Path, checksum: e.Checksum})
		}
	}

	var list []job.Job
	for _, c := range candidates {
		if _, err := os.Stat(c.path); err != nil {
			return nil, fmt.Errorf("cannot upload %q: %w", c.path, err)
		}
		fileID, err := fileid.LocalToRemote(c.path, localPrefix, remotePrefix)
		if err != nil {
			return nil, err
		}
		list = append(list, job.New(c.path, fileID, c.checksum, exchange.JoinURL(cfg.ExchangeURL, fileID)))
	}
	return list, nil
}

package main

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/lmondada/portmatching-benchmarking/pkg/blobstore"
)

type mirrorFlags struct {
	bucket   *string
	prefix   *string
	region   *string
	endpoint *string
	local    *string
	compress *bool
}

func (a *app) mirrorFlags(fs *flag.FlagSet) *mirrorFlags {
	m := a.cfg.Mirror
	return &mirrorFlags{
		bucket:   fs.String("bucket", m.Bucket, "S3 bucket"),
		prefix:   fs.String("prefix", m.Prefix, "key prefix inside the bucket"),
		region:   fs.String("region", m.Region, "AWS region"),
		endpoint: fs.String("endpoint", m.Endpoint, "S3 endpoint override, e.g. for MinIO"),
		local:    fs.String("local", "", "mirror into this directory instead of S3"),
		compress: fs.Bool("compress", m.Compress, "lz4-compress stored blobs"),
	}
}

func (a *app) openStore(ctx context.Context, f *mirrorFlags) (blobstore.Store, error) {
	var (
		store blobstore.Store
		err   error
	)
	if *f.local != "" {
		store, err = blobstore.NewLocal(*f.local, a.logger)
	} else {
		store, err = blobstore.NewS3(ctx, blobstore.S3Options{
			Bucket:   *f.bucket,
			Prefix:   *f.prefix,
			Region:   *f.region,
			Endpoint: *f.endpoint,
		}, a.logger)
	}
	if err != nil {
		return nil, err
	}
	if *f.compress {
		store = blobstore.NewCompressed(store)
	}
	return store, nil
}

func (a *app) pushCmd() *Command {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	mf := a.mirrorFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "push [flags] [corpus-dir...]",
		Short: "Upload corpus blobs to a store",
		Long: `Upload the QASM and JSON blobs of each corpus to a store, keyed by the
corpus name. Without arguments every generated corpus under the datasets
folder is pushed.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = datasetDirs([]string{a.cfg.DatasetsDir})
			}
			if len(dirs) == 0 {
				return errNoDatasets
			}

			store, err := a.openStore(ctx, mf)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, dir := range dirs {
				if err := blobstore.PushCorpus(ctx, store, dir); err != nil {
					return err
				}
				a.logger.Info("pushed corpus", "corpus", dir)
			}
			o.Printf("Pushed %d corpora\n", len(dirs))
			return nil
		},
	}
}

func (a *app) pullCmd() *Command {
	fs := flag.NewFlagSet("pull", flag.ContinueOnError)
	mf := a.mirrorFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "pull [flags] <corpus-dir...>",
		Short: "Download corpus blobs from a store",
		Long: `Download the QASM and JSON blobs of each corpus from a store. The corpus
name is the last element of the directory.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errors.New("pull needs at least one corpus directory")
			}

			store, err := a.openStore(ctx, mf)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, dir := range args {
				if err := blobstore.PullCorpus(ctx, store, dir); err != nil {
					return err
				}
				a.logger.Info("pulled corpus", "corpus", dir)
			}
			o.Printf("Pulled %d corpora\n", len(args))
			return nil
		},
	}
}

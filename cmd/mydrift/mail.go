package main

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"

	"github.com/mydrift-ai/mydrift/internal/mailsource"
	"github.com/mydrift-ai/mydrift/internal/model"
)

func runImportMail(ctx context.Context, a *app, accessToken string, maxResults int64, query string, out io.Writer) error {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	var opts []mailsource.Option
	if maxResults > 0 {
		opts = append(opts, mailsource.WithMaxResults(maxResults))
	}
	if query != "" {
		opts = append(opts, mailsource.WithQuery(query))
	}

	importer, err := mailsource.NewImporter(ctx, ts, a.enc, a.index, a.stores[model.SourceMail], a.log, opts...)
	if err != nil {
		return err
	}

	n, err := importer.Import(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d mail chunks\n", n)
	return nil
}

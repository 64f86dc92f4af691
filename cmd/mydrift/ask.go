package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mydrift-ai/mydrift/internal/factory"
	"github.com/mydrift-ai/mydrift/internal/generation"
	"github.com/mydrift-ai/mydrift/internal/model"
	"github.com/mydrift-ai/mydrift/internal/retrieval"
	"github.com/mydrift-ai/mydrift/internal/services"
)

func runAsk(ctx context.Context, a *app, query, user, sender, backend, llmName string, out io.Writer) error {
	engine, err := retrieval.NewEngine(a.enc, a.index, a.stores,
		[]string{model.SourceMessage, model.SourceMail}, a.log)
	if err != nil {
		return err
	}
	streamer, err := generation.NewStreamer(factory.NewGenerationBackends(a.cfg, a.log))
	if err != nil {
		return err
	}
	svc := services.NewQueryService(engine, streamer, a.cfg.ContextWindow)

	events, err := svc.Ask(ctx, services.AskRequest{
		User:    user,
		Query:   query,
		Sender:  sender,
		LLMName: llmName,
		Source:  backend,
	})
	if err != nil {
		return err
	}

	for ev := range events {
		if ev.Err != nil {
			fmt.Fprintln(out)
			return ev.Err
		}
		fmt.Fprint(out, ev.Token)
	}
	fmt.Fprintln(out)
	return ctx.Err()
}

func runBrowse(ctx context.Context, a *app, source string, page, pageSize int, sendersCSV string, out io.Writer) error {
	svc := services.NewBrowseService(a.stores)
	senders := services.ParseSenders(sendersCSV)

	result, err := svc.Browse(ctx, source, page, pageSize, senders)
	if err != nil {
		return err
	}
	total, err := svc.PageCount(ctx, source, pageSize, senders)
	if err != nil {
		return err
	}

	for _, c := range result.Chunks {
		start := time.UnixMilli(c.StartTimestamp).Format("2006-01-02 15:04")
		fmt.Fprintf(out, "%s  %s  %v\n%s\n\n", c.DocID, start, c.Senders, c.Text)
	}
	fmt.Fprintf(out, "page %d of %d\n", result.Page, total)
	return nil
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/example/d4scope/internal/submit"
)

// serveMockCmd runs the mock analysis service.
type serveMockCmd struct {
	command
	addr string
}

func parseServeMockCmd(args []string, r *root) (*serveMockCmd, error) {
	c := &serveMockCmd{command: newCommand(r, "serve-mock")}
	c.fs.StringVar(&c.addr, "addr", ":8080", "listen address")
	c.fs.Usage = usageFunc(c)
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *serveMockCmd) Run() error {
	srv := &http.Server{
		Addr:              c.addr,
		Handler:           submit.NewMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()
	log.Printf("mock analysis service listening on %s%s", c.addr, submit.Route)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/1F47E/go-trialreel/internal/config"
	"github.com/1F47E/go-trialreel/internal/core"
	"github.com/1F47E/go-trialreel/internal/logger"
)

var app = cli.NewApp()
var log = logger.Log

func init() {
	app.Name = "trialreel"
	app.Usage = "Annotate trial frame sequences and tile them into a montage"
	app.UsageText = "trialreel [--env file] [command] [table.csv]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "env",
			Usage: "path to load env from",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:    "render",
			Aliases: []string{"r"},
			Usage:   "Render annotated montage frames from a trials table",
			Action: func(c *cli.Context) error {
				table, err := getTable(c)
				if err != nil {
					return err
				}
				return withCore(c, func(cr *core.Core) error {
					m, err := cr.Render(table)
					if err != nil {
						return err
					}
					log.Info(m.Print())
					return nil
				})
			},
		},
		{
			Name:    "inspect",
			Aliases: []string{"i"},
			Usage:   "Show window and grid cell of every trial",
			Action: func(c *cli.Context) error {
				table, err := getTable(c)
				if err != nil {
					return err
				}
				return withCore(c, func(cr *core.Core) error {
					win, trials, err := cr.Inspect(table)
					if err != nil {
						return err
					}
					log.Infof("Window: before %d, after %d, max span %d, %d frames at %v fps",
						win.Before, win.After, win.MaxSpan, win.FullLength, win.FrameRate)
					for _, t := range trials {
						log.Info(t.Print())
					}
					return nil
				})
			},
		},
		{
			Name:    "encode",
			Aliases: []string{"e"},
			Usage:   "Encode rendered frames into a video with ffmpeg",
			Action: func(c *cli.Context) error {
				return withCore(c, func(cr *core.Core) error {
					out, err := cr.Encode()
					if err != nil {
						return err
					}
					log.Infof("Video saved: %s", out)
					return nil
				})
			},
		},
		{
			Name:    "verify",
			Aliases: []string{"v"},
			Usage:   "Check rendered frames against the manifest checksums",
			Action: func(c *cli.Context) error {
				return withCore(c, func(cr *core.Core) error {
					n, err := cr.Verify()
					if err != nil {
						return fmt.Errorf("verification failed after %d frames: %w", n, err)
					}
					log.Infof("All %d frames match the manifest", n)
					return nil
				})
			},
		},
	}
}

func getTable(c *cli.Context) (string, error) {
	f := c.Args().Get(0)
	if f == "" {
		return "", fmt.Errorf("trials table is required")
	}
	return f, nil
}

func withCore(c *cli.Context, fn func(*core.Core) error) error {
	settings, err := config.Load(c.GlobalString("env"))
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cr, err := core.NewCore(ctx, settings)
	if err != nil {
		return err
	}
	return fn(cr)
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/d3s-trento/mspsim/internal/log"
	"github.com/d3s-trento/mspsim/internal/sim"
)

func main() {
	var opts []sim.Option

	interactive := true

	cmd := &cli.Command{
		Name:  "mspsim",
		Usage: "MSP430 USART peripheral simulator with an echo console",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "print simulator debug logs",
				Action: func(_ context.Context, _ *cli.Command, b bool) error {
					log.DebugEnabled = b

					return nil
				},
			},

			&cli.BoolFlag{
				Name:    "stdin",
				Aliases: []string{"s"},
				Usage:   "read serial input from stdin instead of the terminal",
				Action: func(_ context.Context, _ *cli.Command, b bool) error {
					interactive = false

					opts = append(opts, sim.WithInput(os.Stdin))

					return nil
				},
			},

			&cli.IntFlag{
				Name:  "aclk",
				Usage: "ACLK reference frequency in Hz",
				Value: sim.DEFAULT_ACLK_FRQ,
				Action: func(_ context.Context, _ *cli.Command, frq int) error {
					opts = append(opts, sim.WithACLKFrq(frq))

					return nil
				},
			},

			&cli.IntFlag{
				Name:  "smclk",
				Usage: "SMCLK reference frequency in Hz",
				Value: sim.DEFAULT_SMCLK_FRQ,
				Action: func(_ context.Context, _ *cli.Command, frq int) error {
					opts = append(opts, sim.WithSMCLKFrq(frq))

					return nil
				},
			},

			&cli.IntFlag{
				Name:  "divisor",
				Usage: "baud-rate divisor programmed into UBR0/UBR1",
				Value: sim.DEFAULT_DIVISOR,
				Action: func(_ context.Context, _ *cli.Command, div int) error {
					opts = append(opts, sim.WithDivisor(div))

					return nil
				},
			},

			&cli.Uint64Flag{
				Name:    "cycles",
				Aliases: []string{"c"},
				Usage:   "stop after this many simulated cycles (0 = run forever)",
				Action: func(_ context.Context, _ *cli.Command, cycles uint64) error {
					opts = append(opts, sim.WithCycleLimit(cycles))

					return nil
				},
			},

			&cli.StringFlag{
				Name:    "banner",
				Aliases: []string{"b"},
				Usage:   "text transmitted on startup",
				Value:   "mspsim ready\r\n",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts = append(opts, sim.WithBanner(cmd.String("banner")))

			if interactive {
				opts = append(opts, sim.WithInteractive())
			}

			return sim.Run(ctx, opts...)
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Run(ctx, os.Args)

	cancel()

	if err != nil {
		fmt.Printf("runtime error: %v\n", err)
		os.Exit(1)
	}
}

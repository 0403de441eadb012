package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/dht20/cmd/dht20/console"
	"github.com/mklimuk/dht20/environment"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "take a single measurement",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format: text or yaml",
			Value:   "text",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := configFromContext(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", err)
		}
		format := c.String("format")
		if format != "text" && format != "yaml" {
			return console.Exit(1, "unknown output format %q", format)
		}
		ctx := commandContext(c)
		return withSensor(ctx, cfg, func(s *environment.DHT20) error {
			r, err := s.Read(ctx)
			if err != nil {
				return console.Exit(1, "error getting sensor read: %s", err)
			}
			if format == "yaml" {
				return encodeYAML(r)
			}
			console.Printf("%s  %s\n%s %s\n", console.PictoThermometer, console.Celsius(r.Temperature), console.PictoHumidity, console.RelativeHumidity(r.Humidity))
			return nil
		})
	},
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "read the sensor status byte",
	Action: func(c *cli.Context) error {
		cfg, err := configFromContext(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", err)
		}
		ctx := commandContext(c)
		return withSensor(ctx, cfg, func(s *environment.DHT20) error {
			st, err := s.Status(ctx)
			if err != nil {
				return console.Exit(1, "error reading status: %s", err)
			}
			printStatus(st)
			return nil
		})
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "send the calibration sequence if the sensor is not calibrated",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := configFromContext(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", err)
		}
		ctx := commandContext(c)
		return withSensor(ctx, cfg, func(s *environment.DHT20) error {
			st, err := s.Status(ctx)
			if err != nil {
				return console.Exit(1, "error reading status: %s", err)
			}
			printStatus(st)
			if st.Calibrated() {
				return nil
			}
			if !c.Bool("yes") {
				ok, err := console.Confirm("send calibration sequence?", false)
				if errors.Is(err, console.ErrAborted) || (err == nil && !ok) {
					console.Warnf("calibration skipped")
					return nil
				}
				if err != nil {
					return console.Exit(1, "prompt error: %s", err)
				}
			}
			if err := s.Reset(ctx); err != nil {
				return console.Exit(1, "calibration failed: %s", err)
			}
			st, err = s.Status(ctx)
			if err != nil {
				return console.Exit(1, "error reading status: %s", err)
			}
			printStatus(st)
			return nil
		})
	},
}

func printStatus(st environment.Status) {
	picto := console.PictoCalibrated
	state := console.Green("calibrated")
	if !st.Calibrated() {
		picto = console.PictoUncalibrated
		state = console.Yellow("not calibrated")
	}
	if st.Busy() {
		state += ", " + console.Yellow("busy")
	}
	console.PInfof(picto, "status %s: %s", console.White(fmt.Sprintf("%#02x", byte(st))), state)
}

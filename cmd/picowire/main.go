package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/picowire/picowire"
)

func main() {
	picowire.SetupLogging(logging.WARNING)

	app := cli.NewApp()
	app.Name = "picowire"
	app.Usage = "codec for the protobuf binary wire format driven by format-string schemas"
	app.ArgsUsage = "<fmtstr>"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "e",
			Usage: "encode: read a JSON array from stdin, write wire bytes to stdout",
		},
		cli.BoolFlag{
			Name:  "d",
			Usage: "decode: read wire bytes from stdin, write a JSON array to stdout",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("e") == c.Bool("d") || c.NArg() != 1 {
		return cli.NewExitError(
			fmt.Sprintf("Usage: %s <-d|-e> <fmtstr>", c.App.Name), 1)
	}

	w, err := picowire.NewWire(c.Args().First())
	if err != nil {
		return err
	}

	if c.Bool("e") {
		return encode(w, os.Stdin, os.Stdout)
	}
	return decode(w, os.Stdin, os.Stdout)
}

func encode(w *picowire.Wire, in io.Reader, out io.Writer) error {
	var values []interface{}
	if err := json.NewDecoder(in).Decode(&values); err != nil {
		return fmt.Errorf("failed to parse JSON input: %v", err)
	}

	data, err := w.Encode(values...)
	if err != nil {
		return err
	}

	_, err = out.Write(data)
	return err
}

func decode(w *picowire.Wire, in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	values, err := w.Decode(data)
	if err != nil {
		return err
	}

	return json.NewEncoder(out).Encode(values)
}

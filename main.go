package main

import (
	"os"

	"github.com/alecthomas/kong"
	kongcompletion "github.com/jotaen/kong-completion"

	"github.com/connerohnesorge/mdstream/cmd"
)

func main() {
	cli := &cmd.CLI{}
	parser := kong.Must(cli,
		kong.Name("mdstream"),
		kong.Description("Streaming Markdown/MDX rendering for incrementally arriving text"),
		kong.UsageOnError(),
		kong.Bind(cli),
	)

	kongcompletion.Register(parser,
		kongcompletion.WithPredictor("markdownFile", cmd.PredictMarkdownFiles()),
		kongcompletion.WithPredictor("theme", cmd.PredictThemes()),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = ctx.Run()
	parser.FatalIfErrorf(err)
}

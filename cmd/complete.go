package cmd

import (
	"flag"
	"strconv"
	"time"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors predicts the values of flags taking a file or a directory.
var flagPredictors = map[string]complete.Predictor{
	"config": predict.Files("*.yaml"),
	"data":   predict.Dirs("*"),
	"html":   predict.Files("*.html"),
}

// Completion returns the shell completion of the application: commands,
// their flags and the recent years for compute.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: predictors(flag.CommandLine),
	}
	for _, c := range Commands {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		root.Sub[c.Name()] = &complete.Command{Flags: predictors(fs)}
	}
	root.Sub["compute"].Args = recentYears(time.Now().Year(), 5)
	return root
}

func predictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}

// recentYears predicts the n years before current, most recent first.
func recentYears(current, n int) predict.Set {
	var years predict.Set
	for y := current - 1; y >= current-n; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

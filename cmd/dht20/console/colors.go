package console

import (
	"fmt"

	"github.com/fatih/color"
)

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
)

func Celsius(v float32) string {
	return White(fmt.Sprintf("%.2f °C", v))
}

func RelativeHumidity(v float32) string {
	return White(fmt.Sprintf("%.2f %%RH", v))
}

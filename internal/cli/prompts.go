package cli

import (
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/CandleCorr/internal/dataflows"
	"github.com/dyike/CandleCorr/models"
)

const (
	choiceRestart = "Chart another set of symbols"
	choiceExit    = "Exit CandleCorr"
)

// PromptForSymbols prompts the user for a comma separated list of tickers
func PromptForSymbols() ([]string, error) {
	var input string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbols separated by commas (e.g., AAPL, MSFT, GOOGL):",
		Help:    "Symbols are upper-cased and duplicates are ignored",
	}

	if err := survey.AskOne(prompt, &input, survey.WithValidator(validateSymbolList)); err != nil {
		return nil, err
	}

	return dataflows.ParseSymbols(input), nil
}

// PromptForDateRange asks for the start and end of the chart window. Empty
// answers leave that end of the range open.
func PromptForDateRange(loc *time.Location) (models.DateRange, error) {
	var startStr string
	startPrompt := &survey.Input{
		Message: "Enter the start date (YYYY-MM-DD) or press Enter for the earliest available:",
		Help:    "Format: YYYY-MM-DD (e.g., 2023-01-15)",
	}
	if err := survey.AskOne(startPrompt, &startStr, survey.WithValidator(validateDate(loc))); err != nil {
		return models.DateRange{}, err
	}
	start, err := dataflows.ParseDate(startStr, loc)
	if err != nil {
		return models.DateRange{}, err
	}

	var endStr string
	endPrompt := &survey.Input{
		Message: "Enter the end date (YYYY-MM-DD) or press Enter for the latest available:",
		Help:    "Must not be before the start date",
	}
	if err := survey.AskOne(endPrompt, &endStr, survey.WithValidator(validateEndDate(start, loc))); err != nil {
		return models.DateRange{}, err
	}

	return dataflows.ParseDateRange(startStr, endStr, loc)
}

// PromptForRestartOrExit prompts user when a run completes
func PromptForRestartOrExit() (bool, error) {
	var choice string
	prompt := &survey.Select{
		Message: "Done! What would you like to do next?",
		Options: []string{
			choiceRestart,
			choiceExit,
		},
		Default: choiceExit,
	}

	err := survey.AskOne(prompt, &choice)
	if err != nil {
		return false, err
	}

	return choice == choiceRestart, nil
}

func validateSymbolList(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("invalid input type")
	}
	symbols := dataflows.ParseSymbols(str)
	if len(symbols) == 0 {
		return fmt.Errorf("enter at least one ticker symbol")
	}
	for _, symbol := range symbols {
		if err := dataflows.ValidateSymbol(symbol); err != nil {
			return err
		}
	}
	return nil
}

func validateDate(loc *time.Location) survey.Validator {
	return func(val interface{}) error {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("invalid input type")
		}
		_, err := dataflows.ParseDate(str, loc)
		return err
	}
}

func validateEndDate(start time.Time, loc *time.Location) survey.Validator {
	return func(val interface{}) error {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("invalid input type")
		}
		end, err := dataflows.ParseDate(str, loc)
		if err != nil {
			return err
		}
		if !start.IsZero() && !end.IsZero() && end.Before(start) {
			return fmt.Errorf("end date must be on or after %s", start.Format(models.DateLayout))
		}
		return nil
	}
}


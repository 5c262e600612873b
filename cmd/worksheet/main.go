// Command worksheet prints a secret-message worksheet to the terminal.
//
//	worksheet -message "GREAT JOB" -difficulty medium -ops add,mul -count 12
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/models"
	"github.com/worksheet-gen/backend/internal/render"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	gridStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now().UnixNano()); err != nil {
		fmt.Fprintln(os.Stderr, "worksheet:", err)
		os.Exit(2)
	}
}

func run(args []string, out io.Writer, defaultSeed int64) error {
	fs := flag.NewFlagSet("worksheet", flag.ContinueOnError)
	fs.SetOutput(out)
	title := fs.String("title", "Secret Message", "worksheet title")
	message := fs.String("message", "YOU ARE AWESOME", "secret message to encode")
	difficulty := fs.String("difficulty", string(models.DifficultyEasy), "easy, medium or hard")
	ops := fs.String("ops", "add,sub", "comma-separated operations: add, sub, mul, div")
	count := fs.Int("count", 10, "number of problems")
	seed := fs.Int64("seed", defaultSeed, "random seed")
	breaker := fs.Bool("breaker", false, "print the code breaker and reveal the message")
	prefill := fs.String("prefill", "", "comma-separated words to reveal in the decode grid")
	key := fs.Bool("key", false, "print the answer key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opSet, err := parseOperations(*ops)
	if err != nil {
		return err
	}
	if _, ok := generator.LookupTier(models.Difficulty(*difficulty)); !ok {
		return fmt.Errorf("unknown difficulty %q", *difficulty)
	}

	settings := models.DefaultSettings()
	settings.Title = *title
	settings.SecretMessage = *message
	settings.Difficulty = models.Difficulty(*difficulty)
	settings.Operations = opSet
	settings.NumberOfProblems = *count
	settings.IncludeCodeBreaker = *breaker
	settings.PrefilledWords = splitWords(*prefill)

	set := generator.Generate(settings.GenerationConfig(), generator.NewRandom(*seed))

	fmt.Fprintln(out, titleStyle.Render(settings.Title))
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("difficulty %s · seed %d", settings.Difficulty, *seed)))
	fmt.Fprintln(out)
	fmt.Fprintln(out, problemTable(set.Problems, *key))

	letters, numbers := render.Lines(render.BuildGrid(settings, set.Cipher))
	fmt.Fprintln(out, gridStyle.Render(letters+"\n"+numbers))

	if settings.IncludeCodeBreaker {
		fmt.Fprintln(out, breakerTable(set.Cipher))
	}
	for _, w := range set.Report.Warnings() {
		fmt.Fprintln(out, warnStyle.Render("! "+w))
	}
	return nil
}

func problemTable(problems []models.Problem, withAnswers bool) string {
	headers := []string{"#", "Problem"}
	if withAnswers {
		headers = append(headers, "Answer", "Letter")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i, p := range problems {
		row := []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%d %s %d = ____", p.FirstOperand, p.Operation.Symbol(), p.SecondOperand),
		}
		if withAnswers {
			row = append(row, strconv.Itoa(p.Answer), p.Letter)
		}
		t.Row(row...)
	}
	return t.Render()
}

func breakerTable(cipher models.CipherMap) string {
	letters := make([]string, 0, len(cipher.Letters))
	values := make([]string, 0, len(cipher.Letters))
	for _, l := range cipher.Letters {
		letters = append(letters, l)
		values = append(values, strconv.Itoa(cipher.Values[l]))
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Row(letters...).
		Row(values...).
		Render()
}

func parseOperations(s string) (models.OperationSet, error) {
	var set models.OperationSet
	for _, name := range splitWords(s) {
		op := models.Operation(strings.ToLower(name))
		if !op.Valid() {
			return set, fmt.Errorf("unknown operation %q", name)
		}
		set = set.With(op, true)
	}
	if set.Empty() {
		return set, errors.New("at least one operation is required")
	}
	return set, nil
}

func splitWords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

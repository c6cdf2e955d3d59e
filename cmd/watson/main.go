package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"watson-sdk/internal/config"
	"watson-sdk/internal/domain"
	"watson-sdk/internal/fixture"
	applog "watson-sdk/internal/logger"
	"watson-sdk/internal/nlc"
	"watson-sdk/internal/personality"
	"watson-sdk/internal/watson"
)

const usage = `uso: watson <comando> [args]

comandos:
  classifiers                      lista los clasificadores
  classifier <id>                  muestra un clasificador y su estado
  create <name> <lang> <csv>       entrena un clasificador nuevo
  classify <id> <text>             clasifica un texto
  delete <id>                      borra un clasificador
  profile <file> [--json]          calcula un perfil (--json: archivo con contentItems)
`

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := applog.New(cfg.LogLevel)
	defer logger.Sync()

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	opts := []watson.Option{
		watson.WithTimeout(cfg.Timeout),
		watson.WithRateLimit(cfg.RateLimit),
		watson.WithLogger(logger),
	}

	switch cmd := args[0]; cmd {
	case "classifiers", "classifier", "create", "classify", "delete":
		client := nlc.New(opts...)
		if cfg.NLCURL != "" {
			client.SetEndPoint(cfg.NLCURL)
		}
		if err := authenticate(ctx, cfg, client.Service, cfg.NLCUsername, cfg.NLCPassword); err != nil {
			log.Fatal(err)
		}
		err = runClassifierCommand(ctx, client, cmd, args[1:])
	case "profile":
		client := personality.New(opts...)
		if cfg.PIURL != "" {
			client.SetEndPoint(cfg.PIURL)
		}
		if err := authenticate(ctx, cfg, client.Service, cfg.PIUsername, cfg.PIPassword); err != nil {
			log.Fatal(err)
		}
		err = runProfileCommand(ctx, client, args[1:])
	default:
		fmt.Print(usage)
		os.Exit(2)
	}

	if err != nil {
		var serr *watson.ServiceError
		if errors.As(err, &serr) {
			fmt.Fprintln(os.Stderr, color.Red.Sprintf("watson %d: %s", serr.StatusCode, serr.Message))
			os.Exit(1)
		}
		log.Fatal(err)
	}
}

func authenticate(ctx context.Context, cfg *config.Config, svc *watson.Service, username, password string) error {
	if cfg.AuthorizationURL == "" {
		svc.SetUsernameAndPassword(username, password)
		return nil
	}
	tokens := watson.NewTokenClient(cfg.AuthorizationURL, username, password, watson.WithTimeout(cfg.Timeout))
	token, err := tokens.GetToken(ctx, svc.EndPoint())
	if err != nil {
		return fmt.Errorf("obtener token: %w", err)
	}
	svc.SetToken(token)
	return nil
}

func runClassifierCommand(ctx context.Context, client *nlc.NaturalLanguageClassifier, cmd string, args []string) error {
	switch cmd {
	case "classifiers":
		list, err := client.GetClassifiers(ctx)
		if err != nil {
			return err
		}
		if len(list.Classifiers) == 0 {
			fmt.Println("No hay clasificadores.")
			return nil
		}
		table := newTable("ID", "Name", "Language", "Created")
		for _, c := range list.Classifiers {
			table.Append([]string{c.ID, c.Name, c.Language, formatTime(c.Created)})
		}
		table.Render()
	case "classifier":
		if len(args) != 1 {
			return fmt.Errorf("uso: classifier <id>")
		}
		c, err := client.GetClassifier(ctx, args[0])
		if err != nil {
			return err
		}
		printClassifier(c)
	case "create":
		if len(args) != 3 {
			return fmt.Errorf("uso: create <name> <lang> <csv>")
		}
		c, err := client.CreateClassifierFromFile(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		printClassifier(c)
	case "classify":
		if len(args) < 2 {
			return fmt.Errorf("uso: classify <id> <text>")
		}
		result, err := client.Classify(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("Top class: %s\n", color.Green.Sprint(result.TopClass))
		table := newTable("Class", "Confidence")
		for _, class := range result.Classes {
			table.Append([]string{class.Name, fmt.Sprintf("%.4f", class.Confidence)})
		}
		table.Render()
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("uso: delete <id>")
		}
		if err := client.DeleteClassifier(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Clasificador %s borrado.\n", args[0])
	}
	return nil
}

func runProfileCommand(ctx context.Context, client *personality.PersonalityInsights, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("uso: profile <file> [--json]")
	}
	path := args[0]
	asJSON := len(args) > 1 && args[1] == "--json"

	opts := personality.ProfileOptions{}
	if asJSON {
		content, err := fixture.LoadContent(path)
		if err != nil {
			return err
		}
		opts.ContentItems = content.ContentItems
	} else {
		text, err := fixture.ReadString(path)
		if err != nil {
			return err
		}
		opts.Text = text
	}

	profile, err := client.GetProfileWithOptions(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Words: %d  Language: %s\n", profile.WordCount, profile.ProcessedLang)
	if profile.WordCountMessage != "" {
		fmt.Println(color.Yellow.Sprint(profile.WordCountMessage))
	}
	table := newTable("Trait", "Category", "Percentage")
	appendTraits(table, profile.Tree, 0)
	table.Render()
	return nil
}

func appendTraits(table *tablewriter.Table, t *domain.Trait, depth int) {
	if t == nil {
		return
	}
	if t.Percentage != nil {
		table.Append([]string{strings.Repeat("  ", depth) + t.Name, t.Category, fmt.Sprintf("%.1f%%", *t.Percentage*100)})
	}
	for i := range t.Children {
		appendTraits(table, &t.Children[i], depth+1)
	}
}

func printClassifier(c *domain.Classifier) {
	table := newTable("Field", "Value")
	table.Append([]string{"ID", c.ID})
	table.Append([]string{"Name", c.Name})
	table.Append([]string{"Language", c.Language})
	table.Append([]string{"Created", formatTime(c.Created)})
	table.Append([]string{"Status", statusColor(c.Status)})
	if c.StatusDescription != "" {
		table.Append([]string{"Description", c.StatusDescription})
	}
	table.Render()
}

func statusColor(status domain.ClassifierStatus) string {
	switch status {
	case domain.ClassifierStatusAvailable:
		return color.Green.Sprint(status)
	case domain.ClassifierStatusTraining:
		return color.Yellow.Sprint(status)
	case domain.ClassifierStatusFailed, domain.ClassifierStatusUnavailable, domain.ClassifierStatusNonExistent:
		return color.Red.Sprint(status)
	default:
		return string(status)
	}
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

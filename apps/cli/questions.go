package main

import (
	"context"
	"strings"

	"github.com/mrhat05/Doubtroom/core/account"
	"github.com/mrhat05/Doubtroom/core/catalog"
)

// listQuestions prints the newest questions of branch first. An empty branch means the profile's.
func (cli *commandLine) listQuestions(ctx context.Context, branch string) error {
	if cli.machine.Stage() == account.Unauthenticated {
		return account.ErrInvalidTransition
	}
	if branch == "" {
		branch = cli.machine.Profile().Branch
	}

	questions, err := cli.client.ListQuestions(ctx, branch)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		cli.println("No questions yet.")
		return nil
	}
	for _, q := range questions {
		cli.printf("[%s] %s (%s)\n", q.CreatedAt.Local().Format("2006-01-02 15:04"), q.Topic, q.CollegeName)
		cli.printf("    %s\n", strings.ReplaceAll(q.Text, "\n", "\n    "))
		if q.Photo != nil {
			cli.printf("    photo: %s\n", *q.Photo)
		}
		cli.printf("    %d answer(s)\n", q.Answers)
	}
	return nil
}

func (cli *commandLine) printCatalog(ctx context.Context) error {
	cat, err := cli.client.Catalog(ctx)
	if err != nil {
		return err
	}
	sections := []struct {
		title   string
		choices []catalog.Choice
	}{
		{"Roles", cat.Roles},
		{"Genders", cat.Genders},
		{"Study types", cat.StudyTypes},
		{"Branches", cat.Branches},
		{"Colleges", cat.Colleges},
	}
	for _, s := range sections {
		cli.println(s.title + ":")
		for _, c := range s.choices {
			cli.printf("  %-40s %s\n", c.Value, c.Label)
		}
	}
	return nil
}

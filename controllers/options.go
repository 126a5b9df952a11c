package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"irus/models"
)

// options gives typed access to the options of one subcommand.
type options struct {
	list   []*discordgo.ApplicationCommandInteractionDataOption
	byName map[string]*discordgo.ApplicationCommandInteractionDataOption
}

func optionsOf(o *discordgo.ApplicationCommandInteractionDataOption) options {
	opts := options{byName: map[string]*discordgo.ApplicationCommandInteractionDataOption{}}
	if o == nil {
		return opts
	}
	opts.list = o.Options
	for _, child := range o.Options {
		opts.byName[child.Name] = child
	}
	return opts
}

func (o options) has(name string) bool {
	_, ok := o.byName[name]
	return ok
}

func (o options) str(name, fallback string) string {
	opt, ok := o.byName[name]
	if !ok || opt.Value == nil {
		return fallback
	}
	if s, ok := opt.Value.(string); ok {
		return s
	}
	return fmt.Sprint(opt.Value)
}

func (o options) integer(name string, fallback int) int {
	opt, ok := o.byName[name]
	if !ok {
		return fallback
	}
	switch v := opt.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (o options) boolean(name string, fallback bool) bool {
	opt, ok := o.byName[name]
	if !ok {
		return fallback
	}
	switch v := opt.Value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// files resolves the file* attachment options in the order they were given.
func (o options) files(resolved *discordgo.ApplicationCommandInteractionDataResolved) ([]models.File, error) {
	var files []models.File
	for _, opt := range o.list {
		if !strings.HasPrefix(opt.Name, "file") {
			continue
		}
		id, _ := opt.Value.(string)
		if resolved == nil || resolved.Attachments[id] == nil {
			return nil, fmt.Errorf("attachment %s for %s not found in request", id, opt.Name)
		}
		a := resolved.Attachments[id]
		files = append(files, models.File{
			Name:       opt.Name,
			Attachment: id,
			Filename:   a.Filename,
			URL:        a.URL,
		})
	}
	return files, nil
}

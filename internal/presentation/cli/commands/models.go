package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/model"
)

// NewModelsCmd creates the models command for listing known model descriptors.
func NewModelsCmd() *cobra.Command {
	var providerFilter string

	cmd := &cobra.Command{
		Use:     "models",
		Short:   "List known models and their advertised limits",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(providerFilter)
		},
	}

	cmd.Flags().StringVarP(&providerFilter, "provider", "p", "", "filter by provider: anthropic, openai, ollama")

	return cmd
}

func runModels(providerFilter string) error {
	app := GetAppContext()

	var descriptors []*model.Descriptor
	if providerFilter != "" {
		descriptors = app.Models.ListByProvider(providerFilter)
	} else {
		descriptors = app.Models.List()
	}

	sort.Slice(descriptors, func(i, j int) bool {
		if descriptors[i].Provider != descriptors[j].Provider {
			return descriptors[i].Provider < descriptors[j].Provider
		}
		return descriptors[i].ID < descriptors[j].ID
	})

	return app.Formatter.ModelsReport(descriptors)
}

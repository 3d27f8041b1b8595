package cmd

import (
	"github.com/mj1618/shopshield/internal/classify"
	"github.com/mj1618/shopshield/internal/model"
	"github.com/mj1618/shopshield/internal/output"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single element description",
	Long: `Decide whether an element with the given attributes looks like a checkout
or payment trigger, and report which rule fired.

Examples:
  shopshield classify --tag button --text "Proceed to Checkout"
  shopshield classify --tag input --input-type text --name cc_number`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().String("tag", "button", "Element kind: button, input, anchor, form, other")
	classifyCmd.Flags().String("text", "", "Visible text content")
	classifyCmd.Flags().String("value", "", "Value attribute")
	classifyCmd.Flags().String("aria-label", "", "aria-label attribute")
	classifyCmd.Flags().String("name", "", "name attribute")
	classifyCmd.Flags().String("id", "", "id attribute")
	classifyCmd.Flags().String("placeholder", "", "placeholder attribute")
	classifyCmd.Flags().String("role", "", "ARIA role")
	classifyCmd.Flags().String("input-type", "", "Input type, e.g. text, tel, submit")
}

func runClassify(cmd *cobra.Command, args []string) error {
	tag, _ := cmd.Flags().GetString("tag")
	d := model.ElementDescriptor{Tag: model.MapTag(tag)}
	if tag == string(model.TagAnchor) || tag == string(model.TagOther) {
		d.Tag = model.Tag(tag)
	}
	d.TextContent, _ = cmd.Flags().GetString("text")
	d.Value, _ = cmd.Flags().GetString("value")
	d.AriaLabel, _ = cmd.Flags().GetString("aria-label")
	d.Name, _ = cmd.Flags().GetString("name")
	d.ID, _ = cmd.Flags().GetString("id")
	d.Placeholder, _ = cmd.Flags().GetString("placeholder")
	d.Role, _ = cmd.Flags().GetString("role")
	d.InputType, _ = cmd.Flags().GetString("input-type")

	v := classify.Explain(d)
	return output.Print(output.ClassifyResult{
		Match:   v.Match,
		Rule:    v.Rule,
		Field:   v.Field,
		Keyword: v.Keyword,
		Element: d,
	})
}

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/variants/pkg/codec"
	"github.com/matzehuels/variants/pkg/format"
)

// formatsCommand creates the formats command.
func (c *CLI) formatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List known image formats and what the codec supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cd := codec.NewImaging()
			fmt.Println(StyleTitle.Render("Formats"))
			for _, f := range format.All {
				fmt.Println(formatRow(f, cd))
			}
			return nil
		},
	}
}

// formatRow renders one line of the formats table.
func formatRow(f format.Format, cd codec.Codec) string {
	col := lipgloss.NewStyle().Width(8)
	mime := lipgloss.NewStyle().Foreground(colorGray).Width(16)

	quality := "lossless"
	if f.Lossy() {
		quality = "lossy"
	}
	return "  " + col.Render(StyleValue.Render(f.Extension())) +
		mime.Render(f.MIMEType()) +
		col.Render(support("decode", cd.CanDecode(f))) +
		col.Render(support("encode", cd.CanEncode(f))) +
		StyleDim.Render(quality)
}

func support(label string, ok bool) string {
	if ok {
		return styleIconSuccess.Render(iconSuccess) + " " + label
	}
	return styleIconError.Render(iconError) + " " + StyleDim.Render(label)
}

// joinNames lists the format tokens for flag help.
func joinNames() string {
	return strings.Join(format.Names(), ", ")
}

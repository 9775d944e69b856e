package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/panelglot/panelglot/internal/geometry"
	"github.com/panelglot/panelglot/internal/overlay"
	"github.com/panelglot/panelglot/internal/pipeline"
	"github.com/panelglot/panelglot/internal/translator"
)

// pageCmd represents the page command.
var pageCmd = &cobra.Command{
	Use:   "page [image file]",
	Short: "Translate a single page image",
	Long: `Run the translation pipeline on one page image and print the overlay
result as JSON.

Examples:
  panelglot page chapter3/page017.png --source ja --target en
  panelglot page page.png --source ja --target en --tier premium
  panelglot page page.png --source ja --target en --overlay out.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		imagePath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		imageBytes, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read page image: %w", err)
		}
		imgCfg, _, err := image.DecodeConfig(bytes.NewReader(imageBytes))
		if err != nil {
			return fmt.Errorf("decode page image: %w", err)
		}

		sourceLang, _ := cmd.Flags().GetString("source")
		targetLang, _ := cmd.Flags().GetString("target")
		tierFlag, _ := cmd.Flags().GetString("tier")
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		overlayPath, _ := cmd.Flags().GetString("overlay")

		tier, err := translator.ParseTier(tierFlag)
		if err != nil {
			return err
		}
		if width <= 0 {
			width = imgCfg.Width
		}
		if height <= 0 {
			height = imgCfg.Height
		}

		pageID := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
		pl, _, err := buildPipeline(cfg, filepath.Dir(imagePath))
		if err != nil {
			return err
		}
		defer func() { _ = pl.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.TimeoutSec)*time.Second)
		defer cancel()

		result, err := pl.Translate(ctx, pipeline.Request{
			PageID: pageID,
			Settings: pipeline.Settings{
				SourceLang: sourceLang,
				TargetLang: targetLang,
				Tier:       tier,
			},
			Viewport: geometry.Size{Width: width, Height: height},
		})
		if err != nil {
			return fmt.Errorf("translate page %s: %w", pageID, err)
		}

		out, err := pipeline.ToJSON(result)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)

		if overlayPath != "" {
			img, _, err := image.Decode(bytes.NewReader(imageBytes))
			if err != nil {
				return fmt.Errorf("decode page image: %w", err)
			}
			rendered := overlay.Render(img, result)
			if rendered == nil {
				return fmt.Errorf("overlay rendering failed")
			}
			if err := imaging.Save(rendered, overlayPath); err != nil {
				return fmt.Errorf("save overlay: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pageCmd)
	pageCmd.Flags().String("source", "", "source language (BCP 47, e.g. ja)")
	pageCmd.Flags().String("target", "", "target language (BCP 47, e.g. en)")
	pageCmd.Flags().String("tier", "balanced", "quality tier (fast, balanced, premium)")
	pageCmd.Flags().Int("width", 0, "viewport width (defaults to image width)")
	pageCmd.Flags().Int("height", 0, "viewport height (defaults to image height)")
	pageCmd.Flags().String("overlay", "", "write a rendered overlay PNG to this path")
	_ = pageCmd.MarkFlagRequired("source")
	_ = pageCmd.MarkFlagRequired("target")
}

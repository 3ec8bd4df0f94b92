package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shortsmith/internal/geometry"
	"shortsmith/internal/services"
)

func newGeometryCommand(ctx *commandContext) *cobra.Command {
	var (
		rotation   string
		scaling    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "geometry <width> <height>",
		Short: "Show how a source frame maps onto the Shorts canvas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := parseDimension("width", args[0])
			if err != nil {
				return err
			}
			height, err := parseDimension("height", args[1])
			if err != nil {
				return err
			}

			opts := geometryDefaults(ctx)
			if cmd.Flags().Changed("rotation") {
				mode, err := geometry.ParseRotationMode(rotation)
				if err != nil {
					return err
				}
				opts = append(opts, geometry.WithRotation(mode))
			}
			if cmd.Flags().Changed("scaling") {
				scale, err := geometry.ParseScaling(scaling)
				if err != nil {
					return err
				}
				opts = append(opts, geometry.WithScaling(scale))
			}

			plan, err := geometry.Fit(width, height, opts...)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, plan)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPlan(plan))
			return nil
		},
	}

	cmd.Flags().StringVar(&rotation, "rotation", string(geometry.RotationSmart), "Rotation mode: smart, rotate, or scale")
	cmd.Flags().StringVar(&scaling, "scaling", string(geometry.ScaleCover), "Scaling: cover (crop) or contain (pad)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// geometryDefaults applies the configured canvas and policies.
func geometryDefaults(ctx *commandContext) []geometry.Option {
	cfg := ctx.configValue()
	if cfg == nil {
		return nil
	}
	opts := []geometry.Option{geometry.WithTarget(cfg.Shorts.TargetWidth, cfg.Shorts.TargetHeight)}
	if mode, err := geometry.ParseRotationMode(cfg.Shorts.RotationMode); err == nil {
		opts = append(opts, geometry.WithRotation(mode))
	}
	if scale, err := geometry.ParseScaling(cfg.Shorts.Scaling); err == nil {
		opts = append(opts, geometry.WithScaling(scale))
	}
	return opts
}

func parseDimension(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "geometry", "parse", fmt.Sprintf("%s must be an integer, got %q", name, value), nil)
	}
	return n, nil
}

func renderPlan(plan geometry.Plan) string {
	width, height := plan.OutputSize()
	fields := []field{
		{"Source", fmt.Sprintf("%dx%d", plan.SourceWidth, plan.SourceHeight)},
		{"Target", fmt.Sprintf("%dx%d", plan.TargetWidth, plan.TargetHeight)},
		{"Rotate", yesNo(plan.Rotate)},
		{"Scale factor", strconv.FormatFloat(plan.ScaleFactor, 'f', 4, 64)},
		{"Scaled", fmt.Sprintf("%dx%d", plan.ScaledWidth, plan.ScaledHeight)},
		{"Adjustment", plan.Adjustment()},
	}
	if plan.Crop != nil {
		fields = append(fields, field{"Crop", fmt.Sprintf("(%d,%d)-(%d,%d)", plan.Crop.X1, plan.Crop.Y1, plan.Crop.X2, plan.Crop.Y2)})
	}
	if plan.Pad != nil {
		fields = append(fields, field{"Pad offset", fmt.Sprintf("%d,%d", plan.Pad.X, plan.Pad.Y)})
	}
	fields = append(fields, field{"Output", fmt.Sprintf("%dx%d", width, height)})
	return renderFields(fields)
}

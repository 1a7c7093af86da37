package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"contrastcurve/internal/models"
	"contrastcurve/pkg/analysis"
	"contrastcurve/pkg/config"
	"contrastcurve/pkg/frame"
	"contrastcurve/pkg/loader"
	"contrastcurve/pkg/report"
	"contrastcurve/pkg/visualization"
)

// analyzeOptions holds flag values that override the config file
type analyzeOptions struct {
	AgentFile    string
	Width        int
	Height       int
	CenterX      int
	CenterY      int
	Threshold    float64
	Workers      int
	ChartDir     string
	ReportFile   string
	Workbook     string
	PeakImage    string
	Magnify      int
	SaveMasked   bool
	MaskedFormat string
}

var analyzeCmd = newAnalyzeCmd(&analyzeOptions{})

// newAnalyzeCmd builds the analyze command with its flags bound to opts.
func newAnalyzeCmd(opts *analyzeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [frames or directories...] [agent.txt]",
		Short: "Analyze the contrast curve of a perfusion series",
		Long: `Loads the frames in acquisition order (PGM P2, PNG or JPEG files, or
directories of them sorted by the number in each file name), averages the
region of interest in every frame and reports contrast arrival, peak contrast
and the temporal gradient between them.

Relative paths are resolved under the configured data directory. A .txt
argument is read as the contrast agent file (name on line 1, dose on line 2).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyAnalyzeFlags(cmd, opts, cfg)
			return runAnalyze(cfg, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.AgentFile, "agent", "a", "", "Contrast agent file (name, then dose in mmol/kg)")
	f.IntVar(&opts.Width, "mask-width", 0, "Region width in pixels (default from config)")
	f.IntVar(&opts.Height, "mask-height", 0, "Region height in pixels (default from config)")
	f.IntVar(&opts.CenterX, "mask-center-x", 0, "Region centre column (default from config)")
	f.IntVar(&opts.CenterY, "mask-center-y", 0, "Region centre row (default from config)")
	f.Float64VarP(&opts.Threshold, "threshold", "t", 0, "Arrival gradient threshold; 0 selects the default of 10 (default from config)")
	f.IntVarP(&opts.Workers, "workers", "w", 0, "Goroutines used to average frames (default from config)")
	f.StringVar(&opts.ChartDir, "chart-dir", "", "Write signal/gradient charts and the peak frame here")
	f.StringVarP(&opts.ReportFile, "report", "o", "", "Write a JSON report to this file")
	f.StringVar(&opts.Workbook, "xlsx", "", "Write the curve and results to this Excel workbook")
	f.StringVar(&opts.PeakImage, "peak-image", "", "Write the magnified peak frame to this file (.png or .jpg)")
	f.IntVar(&opts.Magnify, "magnify", 0, "Zoom factor for exported frames (default from config)")
	f.BoolVar(&opts.SaveMasked, "save-masked", false, "Also export every masked frame under the chart directory")
	f.StringVar(&opts.MaskedFormat, "masked-format", "", "Masked frame format: png (magnified preview) or pgm (raw samples)")

	return cmd
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

// applyAnalyzeFlags copies explicitly set flags over the loaded config.
func applyAnalyzeFlags(cmd *cobra.Command, opts *analyzeOptions, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("mask-width") {
		c.Region.KernelWidth = opts.Width
	}
	if f.Changed("mask-height") {
		c.Region.KernelHeight = opts.Height
	}
	if f.Changed("mask-center-x") {
		c.Region.CenterX = opts.CenterX
	}
	if f.Changed("mask-center-y") {
		c.Region.CenterY = opts.CenterY
	}
	if f.Changed("threshold") {
		c.Analysis.ArrivalThreshold = opts.Threshold
	}
	if f.Changed("workers") {
		c.Analysis.NumWorkers = opts.Workers
	}
	if f.Changed("chart-dir") {
		c.Output.ChartDir = opts.ChartDir
	}
	if f.Changed("report") {
		c.Output.ReportFile = opts.ReportFile
	}
	if f.Changed("xlsx") {
		c.Output.WorkbookFile = opts.Workbook
	}
	if f.Changed("magnify") {
		c.Output.Magnify = opts.Magnify
	}
	if f.Changed("save-masked") {
		c.Output.SaveMaskedFrames = opts.SaveMasked
	}
	if f.Changed("masked-format") {
		c.Output.MaskedFormat = opts.MaskedFormat
	}
}

// splitArgs separates the contrast agent file from frame paths.
func splitArgs(args []string, agentFlag string) (frames []string, agentFile string) {
	agentFile = agentFlag
	for _, a := range args {
		if strings.EqualFold(filepath.Ext(a), ".txt") {
			agentFile = a
			continue
		}
		frames = append(frames, a)
	}
	return frames, agentFile
}

func runAnalyze(c *config.Config, opts *analyzeOptions, args []string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	framePaths, agentFile := splitArgs(args, opts.AgentFile)
	if len(framePaths) == 0 {
		return fmt.Errorf("no frame images provided")
	}
	for i, p := range framePaths {
		framePaths[i] = c.ResolvePath(p)
	}

	study := models.Study{}
	if agentFile != "" {
		agent, err := loader.LoadContrastAgent(c.ResolvePath(agentFile))
		if err != nil {
			return err
		}
		study.Agent = agent
		logger.Debug().Str("agent", agent.Name).Float64("dose", agent.Dose).Msg("contrast agent loaded")
	}

	files, err := loader.ResolveFrames(framePaths)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Loading frames"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	seq, sources, err := loader.LoadSequence(files, func(models.FrameSource) {
		bar.Add(1)
	})
	bar.Finish()
	if err != nil {
		return err
	}
	study.Frames = sources
	logger.Info().Int("frames", seq.Len()).Msg("study loaded")

	analyzer := analysis.NewAnalyzer(analysis.Params{
		Region:           c.Region,
		ArrivalThreshold: c.Analysis.ArrivalThreshold,
		NumWorkers:       c.Analysis.NumWorkers,
	}, logger)
	res, runErr := analyzer.Process(seq)

	rep := report.New(study, res, runErr)
	if err := rep.WriteText(os.Stdout); err != nil {
		return err
	}

	if c.Output.ReportFile != "" {
		if err := rep.SaveJSON(c.Output.ReportFile); err != nil {
			logger.Error().Err(err).Msg("failed to save JSON report")
		} else {
			logger.Info().Str("file", c.Output.ReportFile).Str("run_id", rep.RunID).Msg("report saved")
		}
	}

	if c.Output.WorkbookFile != "" && res != nil {
		if err := rep.SaveXLSX(c.Output.WorkbookFile); err != nil {
			logger.Error().Err(err).Msg("failed to save workbook")
		} else {
			logger.Info().Str("file", c.Output.WorkbookFile).Msg("workbook saved")
		}
	}

	if res != nil {
		exportImages(c, opts, analyzer, seq, res)
	}

	return runErr
}

// exportImages writes charts and frame images; failures are logged, not fatal.
func exportImages(c *config.Config, opts *analyzeOptions, analyzer *analysis.Analyzer, seq frame.Sequence, res *analysis.Result) {
	peakImage := opts.PeakImage
	if peakImage == "" && c.Output.ChartDir != "" {
		peakImage = filepath.Join(c.Output.ChartDir, "peak_frame.png")
	}

	if peakImage != "" && res.Peak.TimeFrame >= 0 {
		viewer := visualization.NewViewer(seq, c.Output.Magnify).WithRegion(c.Region)
		img, err := viewer.RenderFrame(res.Peak.TimeFrame)
		if err == nil {
			err = os.MkdirAll(filepath.Dir(peakImage), 0755)
		}
		if err == nil {
			err = viewer.SaveFrame(img, peakImage)
		}
		if err != nil {
			logger.Warn().Err(err).Str("file", peakImage).Msg("failed to save peak frame")
		} else {
			logger.Info().Str("file", peakImage).Int("time_frame", res.Peak.TimeFrame).Msg("peak frame saved")
		}
	}

	if c.Output.ChartDir == "" {
		return
	}

	var signalMarkers, gradientMarkers []visualization.Marker
	if res.Arrival.Detected() {
		d := res.Arrival.TimeFrame
		signalMarkers = append(signalMarkers, visualization.Marker{TimeFrame: d, Value: res.Arrival.Intensity, Label: "arrival"})
		gradientMarkers = append(gradientMarkers, visualization.Marker{TimeFrame: d, Value: res.Arrival.Gradients[d], Label: "arrival"})
	}
	if res.Peak.TimeFrame >= 0 {
		signalMarkers = append(signalMarkers, visualization.Marker{TimeFrame: res.Peak.TimeFrame, Value: res.Peak.Intensity, Label: "peak"})
	}

	charts := map[string]visualization.CurveChart{
		"signal.png": {
			Title:   "Signal timecourse within ROI",
			YLabel:  "Mean intensity",
			Values:  res.Curve,
			Markers: signalMarkers,
		},
		"gradient.png": {
			Title:   "Gradient of signal timecourse within ROI",
			YLabel:  "Intensity change per frame",
			Values:  res.Arrival.Gradients,
			Markers: gradientMarkers,
		},
	}
	for name, ch := range charts {
		path := filepath.Join(c.Output.ChartDir, name)
		if err := ch.Save(path); err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("failed to save chart")
			continue
		}
		logger.Debug().Str("file", path).Msg("chart saved")
	}

	if c.Output.SaveMaskedFrames {
		dir := filepath.Join(c.Output.ChartDir, "masked")
		viewer := visualization.NewViewer(analyzer.MaskedFrames(), c.Output.Magnify)
		save := viewer.SaveFrameSequence
		if c.Output.MaskedFormat == "pgm" {
			save = viewer.SaveRawSequence
		}
		if err := save(dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("failed to save masked frames")
		}
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds every tuning knob for the scoring pipeline:
// filter thresholds, smoothing windows, adaptive-threshold ratios,
// sequence aggregation and analyzer bounds. Fields are pointers so a
// partial JSON file only overrides what it names; the Get* accessors
// supply defaults for everything else. Values are plain numbers with no
// embedded behaviour.
type TuningConfig struct {
	// Smoothing params
	SmoothWindow    *int    `json:"smooth_window,omitempty"`
	SmoothReduction *string `json:"smooth_reduction,omitempty"` // mean|median|gaussian|savgol

	// Spatial filter params
	MinBBoxHeightPx    *float64 `json:"min_bbox_height_px,omitempty"`
	MaxBBoxHeightRatio *float64 `json:"max_bbox_height_ratio,omitempty"` // fraction of frame height
	MinAspectRatio     *float64 `json:"min_aspect_ratio,omitempty"`      // width/height, standing band
	MaxAspectRatio     *float64 `json:"max_aspect_ratio,omitempty"`
	EdgeMarginPx       *float64 `json:"edge_margin_px,omitempty"`

	// Geometric filter params
	MinKeypointConfidence *float64 `json:"min_keypoint_confidence,omitempty"`
	MinTorsoLegRatio      *float64 `json:"min_torso_leg_ratio,omitempty"`
	MaxTorsoLegRatio      *float64 `json:"max_torso_leg_ratio,omitempty"`
	MaxHeadOffset         *float64 `json:"max_head_offset,omitempty"` // height-normalised
	MinSymmetryScore      *float64 `json:"min_symmetry_score,omitempty"`

	// Ghost filter params
	MinConfidentJoints      *int     `json:"min_confident_joints,omitempty"`
	MinTorsoPx              *float64 `json:"min_torso_px,omitempty"`
	MaxTorsoPx              *float64 `json:"max_torso_px,omitempty"`
	MaxArmAsymmetryRatio    *float64 `json:"max_arm_asymmetry_ratio,omitempty"`
	IoUSuppressionThreshold *float64 `json:"iou_suppression_threshold,omitempty"`

	// Velocity filter params
	MaxVelocityPxPerFrame *float64 `json:"max_velocity_px_per_frame,omitempty"`
	MaxJumpDistancePx     *float64 `json:"max_jump_distance_px,omitempty"`
	MaxTrackHistory       *int     `json:"max_track_history,omitempty"`
	TrackStaleFrames      *int     `json:"track_stale_frames,omitempty"`

	// Occlusion params
	OcclusionThreshold      *float64 `json:"occlusion_threshold,omitempty"`
	InterpolationFrames     *int     `json:"interpolation_frames,omitempty"`
	OcclusionFillConfidence *float64 `json:"occlusion_fill_confidence,omitempty"`

	// Adaptive threshold params
	ThresholdMultiplier *float64 `json:"threshold_multiplier,omitempty"` // sigma multiplier
	ThresholdMinRatio   *float64 `json:"threshold_min_ratio,omitempty"`
	ThresholdMaxRatio   *float64 `json:"threshold_max_ratio,omitempty"`
	HeightFactorMin     *float64 `json:"height_factor_min,omitempty"`
	HeightFactorMax     *float64 `json:"height_factor_max,omitempty"`

	// Sequence aggregation params
	MinRunLength        *int     `json:"min_run_length,omitempty"`
	FrameGapTolerance   *int     `json:"frame_gap_tolerance,omitempty"`
	SeverityAggregation *string  `json:"severity_aggregation,omitempty"` // mean|median|max
	DeductionCapFactor  *float64 `json:"deduction_cap_factor,omitempty"`

	// Rhythm/distance/speed analyzer params
	PoseWindowSeconds       *float64 `json:"pose_window_seconds,omitempty"`
	MinWindowSeconds        *float64 `json:"min_window_seconds,omitempty"`
	PeakMinSeparationFrames *int     `json:"peak_min_separation_frames,omitempty"`
	SpeedFloorPxPerSec      *float64 `json:"speed_floor_px_per_sec,omitempty"`
	SpeedCeilingPxPerSec    *float64 `json:"speed_ceiling_px_per_sec,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to have a .json extension and to be under the max file
// size. Fields omitted from the JSON retain their defaults, so partial
// configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching upward from the current directory.
// Panics if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/<pkg>/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that configured values are usable. It only rejects
// values that would make the pipeline nonsensical; anything recoverable
// is left to the Get* fallbacks.
func (c *TuningConfig) Validate() error {
	if c.OcclusionThreshold != nil {
		if *c.OcclusionThreshold < 0 || *c.OcclusionThreshold > 1 {
			return fmt.Errorf("occlusion_threshold must be between 0 and 1, got %f", *c.OcclusionThreshold)
		}
	}
	if c.MinKeypointConfidence != nil {
		if *c.MinKeypointConfidence < 0 || *c.MinKeypointConfidence > 1 {
			return fmt.Errorf("min_keypoint_confidence must be between 0 and 1, got %f", *c.MinKeypointConfidence)
		}
	}
	if c.SmoothWindow != nil && *c.SmoothWindow < 1 {
		return fmt.Errorf("smooth_window must be positive, got %d", *c.SmoothWindow)
	}
	if c.SmoothReduction != nil {
		switch *c.SmoothReduction {
		case "mean", "median", "gaussian", "savgol":
		default:
			return fmt.Errorf("unknown smooth_reduction %q", *c.SmoothReduction)
		}
	}
	if c.SeverityAggregation != nil {
		switch *c.SeverityAggregation {
		case "mean", "median", "max":
		default:
			return fmt.Errorf("unknown severity_aggregation %q", *c.SeverityAggregation)
		}
	}
	if c.ThresholdMinRatio != nil && c.ThresholdMaxRatio != nil {
		if *c.ThresholdMinRatio > *c.ThresholdMaxRatio {
			return fmt.Errorf("threshold_min_ratio %f exceeds threshold_max_ratio %f",
				*c.ThresholdMinRatio, *c.ThresholdMaxRatio)
		}
	}
	if c.MinRunLength != nil && *c.MinRunLength < 1 {
		return fmt.Errorf("min_run_length must be positive, got %d", *c.MinRunLength)
	}
	return nil
}

// GetSmoothWindow returns the smooth_window value or the default.
func (c *TuningConfig) GetSmoothWindow() int {
	if c.SmoothWindow == nil {
		return 5
	}
	return *c.SmoothWindow
}

// GetSmoothReduction returns the smooth_reduction value or the default.
func (c *TuningConfig) GetSmoothReduction() string {
	if c.SmoothReduction == nil {
		return "mean"
	}
	return *c.SmoothReduction
}

// GetMinBBoxHeightPx returns the min_bbox_height_px value or the default.
func (c *TuningConfig) GetMinBBoxHeightPx() float64 {
	if c.MinBBoxHeightPx == nil {
		return 80
	}
	return *c.MinBBoxHeightPx
}

// GetMaxBBoxHeightRatio returns the max_bbox_height_ratio value or the default.
func (c *TuningConfig) GetMaxBBoxHeightRatio() float64 {
	if c.MaxBBoxHeightRatio == nil {
		return 0.95
	}
	return *c.MaxBBoxHeightRatio
}

// GetMinAspectRatio returns the min_aspect_ratio value or the default.
func (c *TuningConfig) GetMinAspectRatio() float64 {
	if c.MinAspectRatio == nil {
		return 0.15
	}
	return *c.MinAspectRatio
}

// GetMaxAspectRatio returns the max_aspect_ratio value or the default.
func (c *TuningConfig) GetMaxAspectRatio() float64 {
	if c.MaxAspectRatio == nil {
		return 0.85
	}
	return *c.MaxAspectRatio
}

// GetEdgeMarginPx returns the edge_margin_px value or the default.
func (c *TuningConfig) GetEdgeMarginPx() float64 {
	if c.EdgeMarginPx == nil {
		return 20
	}
	return *c.EdgeMarginPx
}

// GetMinKeypointConfidence returns the min_keypoint_confidence value or the default.
func (c *TuningConfig) GetMinKeypointConfidence() float64 {
	if c.MinKeypointConfidence == nil {
		return 0.3
	}
	return *c.MinKeypointConfidence
}

// GetMinTorsoLegRatio returns the min_torso_leg_ratio value or the default.
func (c *TuningConfig) GetMinTorsoLegRatio() float64 {
	if c.MinTorsoLegRatio == nil {
		return 0.3
	}
	return *c.MinTorsoLegRatio
}

// GetMaxTorsoLegRatio returns the max_torso_leg_ratio value or the default.
func (c *TuningConfig) GetMaxTorsoLegRatio() float64 {
	if c.MaxTorsoLegRatio == nil {
		return 1.2
	}
	return *c.MaxTorsoLegRatio
}

// GetMaxHeadOffset returns the max_head_offset value or the default.
func (c *TuningConfig) GetMaxHeadOffset() float64 {
	if c.MaxHeadOffset == nil {
		return 0.5
	}
	return *c.MaxHeadOffset
}

// GetMinSymmetryScore returns the min_symmetry_score value or the default.
func (c *TuningConfig) GetMinSymmetryScore() float64 {
	if c.MinSymmetryScore == nil {
		return 0.5
	}
	return *c.MinSymmetryScore
}

// GetMinConfidentJoints returns the min_confident_joints value or the default.
func (c *TuningConfig) GetMinConfidentJoints() int {
	if c.MinConfidentJoints == nil {
		return 8
	}
	return *c.MinConfidentJoints
}

// GetMinTorsoPx returns the min_torso_px value or the default.
func (c *TuningConfig) GetMinTorsoPx() float64 {
	if c.MinTorsoPx == nil {
		return 30
	}
	return *c.MinTorsoPx
}

// GetMaxTorsoPx returns the max_torso_px value or the default.
func (c *TuningConfig) GetMaxTorsoPx() float64 {
	if c.MaxTorsoPx == nil {
		return 400
	}
	return *c.MaxTorsoPx
}

// GetMaxArmAsymmetryRatio returns the max_arm_asymmetry_ratio value or the default.
func (c *TuningConfig) GetMaxArmAsymmetryRatio() float64 {
	if c.MaxArmAsymmetryRatio == nil {
		return 2.5
	}
	return *c.MaxArmAsymmetryRatio
}

// GetIoUSuppressionThreshold returns the iou_suppression_threshold value or the default.
func (c *TuningConfig) GetIoUSuppressionThreshold() float64 {
	if c.IoUSuppressionThreshold == nil {
		return 0.5
	}
	return *c.IoUSuppressionThreshold
}

// GetMaxVelocityPxPerFrame returns the max_velocity_px_per_frame value or the default.
func (c *TuningConfig) GetMaxVelocityPxPerFrame() float64 {
	if c.MaxVelocityPxPerFrame == nil {
		return 50
	}
	return *c.MaxVelocityPxPerFrame
}

// GetMaxJumpDistancePx returns the max_jump_distance_px value or the default.
func (c *TuningConfig) GetMaxJumpDistancePx() float64 {
	if c.MaxJumpDistancePx == nil {
		return 150
	}
	return *c.MaxJumpDistancePx
}

// GetMaxTrackHistory returns the max_track_history value or the default.
func (c *TuningConfig) GetMaxTrackHistory() int {
	if c.MaxTrackHistory == nil {
		return 30
	}
	return *c.MaxTrackHistory
}

// GetTrackStaleFrames returns the track_stale_frames value or the default.
func (c *TuningConfig) GetTrackStaleFrames() int {
	if c.TrackStaleFrames == nil {
		return 60
	}
	return *c.TrackStaleFrames
}

// GetOcclusionThreshold returns the occlusion_threshold value or the default.
func (c *TuningConfig) GetOcclusionThreshold() float64 {
	if c.OcclusionThreshold == nil {
		return 0.5
	}
	return *c.OcclusionThreshold
}

// GetInterpolationFrames returns the interpolation_frames value or the default.
func (c *TuningConfig) GetInterpolationFrames() int {
	if c.InterpolationFrames == nil {
		return 5
	}
	return *c.InterpolationFrames
}

// GetOcclusionFillConfidence returns the occlusion_fill_confidence value or the default.
func (c *TuningConfig) GetOcclusionFillConfidence() float64 {
	if c.OcclusionFillConfidence == nil {
		return 0.5
	}
	return *c.OcclusionFillConfidence
}

// GetThresholdMultiplier returns the threshold_multiplier value or the default.
func (c *TuningConfig) GetThresholdMultiplier() float64 {
	if c.ThresholdMultiplier == nil {
		return 3.0 // three-sigma rule
	}
	return *c.ThresholdMultiplier
}

// GetThresholdMinRatio returns the threshold_min_ratio value or the default.
func (c *TuningConfig) GetThresholdMinRatio() float64 {
	if c.ThresholdMinRatio == nil {
		return 0.3
	}
	return *c.ThresholdMinRatio
}

// GetThresholdMaxRatio returns the threshold_max_ratio value or the default.
func (c *TuningConfig) GetThresholdMaxRatio() float64 {
	if c.ThresholdMaxRatio == nil {
		return 2.0
	}
	return *c.ThresholdMaxRatio
}

// GetHeightFactorMin returns the height_factor_min value or the default.
func (c *TuningConfig) GetHeightFactorMin() float64 {
	if c.HeightFactorMin == nil {
		return 0.7
	}
	return *c.HeightFactorMin
}

// GetHeightFactorMax returns the height_factor_max value or the default.
func (c *TuningConfig) GetHeightFactorMax() float64 {
	if c.HeightFactorMax == nil {
		return 1.3
	}
	return *c.HeightFactorMax
}

// GetMinRunLength returns the min_run_length value or the default.
func (c *TuningConfig) GetMinRunLength() int {
	if c.MinRunLength == nil {
		return 3
	}
	return *c.MinRunLength
}

// GetFrameGapTolerance returns the frame_gap_tolerance value or the default.
func (c *TuningConfig) GetFrameGapTolerance() int {
	if c.FrameGapTolerance == nil {
		return 1
	}
	return *c.FrameGapTolerance
}

// GetSeverityAggregation returns the severity_aggregation value or the default.
func (c *TuningConfig) GetSeverityAggregation() string {
	if c.SeverityAggregation == nil {
		return "mean"
	}
	return *c.SeverityAggregation
}

// GetDeductionCapFactor returns the deduction_cap_factor value or the default.
func (c *TuningConfig) GetDeductionCapFactor() float64 {
	if c.DeductionCapFactor == nil {
		return 10.0
	}
	return *c.DeductionCapFactor
}

// GetPoseWindowSeconds returns the pose_window_seconds value or the default.
func (c *TuningConfig) GetPoseWindowSeconds() float64 {
	if c.PoseWindowSeconds == nil {
		return 3.0
	}
	return *c.PoseWindowSeconds
}

// GetMinWindowSeconds returns the min_window_seconds value or the default.
func (c *TuningConfig) GetMinWindowSeconds() float64 {
	if c.MinWindowSeconds == nil {
		return 1.5
	}
	return *c.MinWindowSeconds
}

// GetPeakMinSeparationFrames returns the peak_min_separation_frames value or the default.
func (c *TuningConfig) GetPeakMinSeparationFrames() int {
	if c.PeakMinSeparationFrames == nil {
		return 5
	}
	return *c.PeakMinSeparationFrames
}

// GetSpeedFloorPxPerSec returns the speed_floor_px_per_sec value or the default.
func (c *TuningConfig) GetSpeedFloorPxPerSec() float64 {
	if c.SpeedFloorPxPerSec == nil {
		return 5
	}
	return *c.SpeedFloorPxPerSec
}

// GetSpeedCeilingPxPerSec returns the speed_ceiling_px_per_sec value or the default.
func (c *TuningConfig) GetSpeedCeilingPxPerSec() float64 {
	if c.SpeedCeilingPxPerSec == nil {
		return 800
	}
	return *c.SpeedCeilingPxPerSec
}

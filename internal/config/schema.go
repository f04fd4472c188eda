// Package config provides the typed schema, defaults, loading, merging and
// validation for Faster R-CNN-family detection experiment configs.
package config

import (
	"github.com/samber/mo"
)

// Config is the root of a detection experiment configuration.
//
// The tree mirrors the schema consumed by the training framework: nested
// sections with uppercase keys, scalars, fixed-arity tuples, and strings
// naming registered model components. A Config is resolved once (defaults,
// then file, then overrides) and treated as immutable afterwards.
type Config struct {
	Model      ModelConfig      `yaml:"MODEL" json:"MODEL"`
	Input      InputConfig      `yaml:"INPUT" json:"INPUT"`
	Datasets   DatasetsConfig   `yaml:"DATASETS" json:"DATASETS"`
	DataLoader DataLoaderConfig `yaml:"DATALOADER" json:"DATALOADER"`
	Solver     SolverConfig     `yaml:"SOLVER" json:"SOLVER"`
	Test       TestConfig       `yaml:"TEST" json:"TEST"`
	OutputDir  string           `yaml:"OUTPUT_DIR" json:"OUTPUT_DIR"`
}

// InputConfig controls image preprocessing at the pipeline entry.
type InputConfig struct {
	MinSizeTrain int        `yaml:"MIN_SIZE_TRAIN" json:"MIN_SIZE_TRAIN"`
	MaxSizeTrain int        `yaml:"MAX_SIZE_TRAIN" json:"MAX_SIZE_TRAIN"`
	MinSizeTest  int        `yaml:"MIN_SIZE_TEST" json:"MIN_SIZE_TEST"`
	MaxSizeTest  int        `yaml:"MAX_SIZE_TEST" json:"MAX_SIZE_TEST"`
	PixelMean    FloatTuple `yaml:"PIXEL_MEAN" json:"PIXEL_MEAN"`
	PixelStd     FloatTuple `yaml:"PIXEL_STD" json:"PIXEL_STD"`
	ToBGR255     bool       `yaml:"TO_BGR255" json:"TO_BGR255"`
}

// ModelConfig selects the meta-architecture and its component stages.
type ModelConfig struct {
	MetaArchitecture string         `yaml:"META_ARCHITECTURE" json:"META_ARCHITECTURE"`
	Weight           string         `yaml:"WEIGHT" json:"WEIGHT"`
	Device           string         `yaml:"DEVICE" json:"DEVICE"`
	RPNOnly          bool           `yaml:"RPN_ONLY" json:"RPN_ONLY"`
	MaskOn           bool           `yaml:"MASK_ON" json:"MASK_ON"`
	Backbone         BackboneConfig `yaml:"BACKBONE" json:"BACKBONE"`
	Resnets          ResnetsConfig  `yaml:"RESNETS" json:"RESNETS"`
	RPN              RPNConfig      `yaml:"RPN" json:"RPN"`
	ROIHeads         ROIHeadsConfig `yaml:"ROI_HEADS" json:"ROI_HEADS"`
	ROIBoxHead       ROIBoxConfig   `yaml:"ROI_BOX_HEAD" json:"ROI_BOX_HEAD"`
	ROIMaskHead      ROIMaskConfig  `yaml:"ROI_MASK_HEAD" json:"ROI_MASK_HEAD"`
}

// WeightOption returns MODEL.WEIGHT as an Option.
// Returns None when no initialization weight is configured.
func (m *ModelConfig) WeightOption() mo.Option[string] {
	if m.Weight == "" {
		return mo.None[string]()
	}
	return mo.Some(m.Weight)
}

// BackboneConfig selects the convolutional body.
type BackboneConfig struct {
	ConvBody         string `yaml:"CONV_BODY" json:"CONV_BODY"`
	FreezeConvBodyAt int    `yaml:"FREEZE_CONV_BODY_AT" json:"FREEZE_CONV_BODY_AT"`
	OutChannels      int    `yaml:"OUT_CHANNELS" json:"OUT_CHANNELS"`
}

// ResnetsConfig parameterizes ResNe(X)t conv bodies.
type ResnetsConfig struct {
	NumGroups       int    `yaml:"NUM_GROUPS" json:"NUM_GROUPS"`
	WidthPerGroup   int    `yaml:"WIDTH_PER_GROUP" json:"WIDTH_PER_GROUP"`
	StrideIn1x1     bool   `yaml:"STRIDE_IN_1X1" json:"STRIDE_IN_1X1"`
	TransFunc       string `yaml:"TRANS_FUNC" json:"TRANS_FUNC"`
	StemFunc        string `yaml:"STEM_FUNC" json:"STEM_FUNC"`
	StemOutChannels int    `yaml:"STEM_OUT_CHANNELS" json:"STEM_OUT_CHANNELS"`
	Res2OutChannels int    `yaml:"RES2_OUT_CHANNELS" json:"RES2_OUT_CHANNELS"`
	Res5Dilation    int    `yaml:"RES5_DILATION" json:"RES5_DILATION"`
}

// RPNConfig controls region-proposal anchor geometry and selection.
//
// Anchor tuples are per feature-map level when USE_FPN is set, and all on
// one feature map otherwise; the validator enforces the matching arities.
type RPNConfig struct {
	UseFPN              bool       `yaml:"USE_FPN" json:"USE_FPN"`
	AnchorSizes         IntTuple   `yaml:"ANCHOR_SIZES" json:"ANCHOR_SIZES"`
	AnchorStride        IntTuple   `yaml:"ANCHOR_STRIDE" json:"ANCHOR_STRIDE"`
	AspectRatios        FloatTuple `yaml:"ASPECT_RATIOS" json:"ASPECT_RATIOS"`
	StraddleThresh      int        `yaml:"STRADDLE_THRESH" json:"STRADDLE_THRESH"`
	FgIoUThreshold      float64    `yaml:"FG_IOU_THRESHOLD" json:"FG_IOU_THRESHOLD"`
	BgIoUThreshold      float64    `yaml:"BG_IOU_THRESHOLD" json:"BG_IOU_THRESHOLD"`
	BatchSizePerImage   int        `yaml:"BATCH_SIZE_PER_IMAGE" json:"BATCH_SIZE_PER_IMAGE"`
	PositiveFraction    float64    `yaml:"POSITIVE_FRACTION" json:"POSITIVE_FRACTION"`
	PreNMSTopNTrain     int        `yaml:"PRE_NMS_TOP_N_TRAIN" json:"PRE_NMS_TOP_N_TRAIN"`
	PreNMSTopNTest      int        `yaml:"PRE_NMS_TOP_N_TEST" json:"PRE_NMS_TOP_N_TEST"`
	PostNMSTopNTrain    int        `yaml:"POST_NMS_TOP_N_TRAIN" json:"POST_NMS_TOP_N_TRAIN"`
	PostNMSTopNTest     int        `yaml:"POST_NMS_TOP_N_TEST" json:"POST_NMS_TOP_N_TEST"`
	NMSThresh           float64    `yaml:"NMS_THRESH" json:"NMS_THRESH"`
	MinSize             int        `yaml:"MIN_SIZE" json:"MIN_SIZE"`
	FPNPostNMSTopNTrain int        `yaml:"FPN_POST_NMS_TOP_N_TRAIN" json:"FPN_POST_NMS_TOP_N_TRAIN"`
	FPNPostNMSTopNTest  int        `yaml:"FPN_POST_NMS_TOP_N_TEST" json:"FPN_POST_NMS_TOP_N_TEST"`
}

// ROIHeadsConfig controls proposal matching and post-processing shared by
// the ROI heads.
type ROIHeadsConfig struct {
	UseFPN            bool       `yaml:"USE_FPN" json:"USE_FPN"`
	ScoreThresh       float64    `yaml:"SCORE_THRESH" json:"SCORE_THRESH"`
	NMS               float64    `yaml:"NMS" json:"NMS"`
	DetectionsPerImg  int        `yaml:"DETECTIONS_PER_IMG" json:"DETECTIONS_PER_IMG"`
	FgIoUThreshold    float64    `yaml:"FG_IOU_THRESHOLD" json:"FG_IOU_THRESHOLD"`
	BgIoUThreshold    float64    `yaml:"BG_IOU_THRESHOLD" json:"BG_IOU_THRESHOLD"`
	BatchSizePerImage int        `yaml:"BATCH_SIZE_PER_IMAGE" json:"BATCH_SIZE_PER_IMAGE"`
	PositiveFraction  float64    `yaml:"POSITIVE_FRACTION" json:"POSITIVE_FRACTION"`
	BboxRegWeights    FloatTuple `yaml:"BBOX_REG_WEIGHTS" json:"BBOX_REG_WEIGHTS"`
}

// ROIBoxConfig configures the box head pooling and predictors.
type ROIBoxConfig struct {
	FeatureExtractor    string     `yaml:"FEATURE_EXTRACTOR" json:"FEATURE_EXTRACTOR"`
	Predictor           string     `yaml:"PREDICTOR" json:"PREDICTOR"`
	PoolerResolution    int        `yaml:"POOLER_RESOLUTION" json:"POOLER_RESOLUTION"`
	PoolerScales        FloatTuple `yaml:"POOLER_SCALES" json:"POOLER_SCALES"`
	PoolerSamplingRatio int        `yaml:"POOLER_SAMPLING_RATIO" json:"POOLER_SAMPLING_RATIO"`
	NumClasses          int        `yaml:"NUM_CLASSES" json:"NUM_CLASSES"`
	MLPHeadDim          int        `yaml:"MLP_HEAD_DIM" json:"MLP_HEAD_DIM"`
}

// ROIMaskConfig configures the mask head. Only consulted when MODEL.MASK_ON.
type ROIMaskConfig struct {
	FeatureExtractor         string     `yaml:"FEATURE_EXTRACTOR" json:"FEATURE_EXTRACTOR"`
	Predictor                string     `yaml:"PREDICTOR" json:"PREDICTOR"`
	PoolerResolution         int        `yaml:"POOLER_RESOLUTION" json:"POOLER_RESOLUTION"`
	PoolerScales             FloatTuple `yaml:"POOLER_SCALES" json:"POOLER_SCALES"`
	PoolerSamplingRatio      int        `yaml:"POOLER_SAMPLING_RATIO" json:"POOLER_SAMPLING_RATIO"`
	ConvLayers               IntTuple   `yaml:"CONV_LAYERS" json:"CONV_LAYERS"`
	Resolution               int        `yaml:"RESOLUTION" json:"RESOLUTION"`
	ShareBoxFeatureExtractor bool       `yaml:"SHARE_BOX_FEATURE_EXTRACTOR" json:"SHARE_BOX_FEATURE_EXTRACTOR"`
	MLPHeadDim               int        `yaml:"MLP_HEAD_DIM" json:"MLP_HEAD_DIM"`
}

// DatasetsConfig names the datasets for training and evaluation.
// Names are resolved against the dataset catalog.
type DatasetsConfig struct {
	Train StringTuple `yaml:"TRAIN" json:"TRAIN"`
	Test  StringTuple `yaml:"TEST" json:"TEST"`
}

// DataLoaderConfig controls batch assembly.
type DataLoaderConfig struct {
	NumWorkers          int  `yaml:"NUM_WORKERS" json:"NUM_WORKERS"`
	SizeDivisibility    int  `yaml:"SIZE_DIVISIBILITY" json:"SIZE_DIVISIBILITY"`
	AspectRatioGrouping bool `yaml:"ASPECT_RATIO_GROUPING" json:"ASPECT_RATIO_GROUPING"`
}

// SolverConfig defines the optimization schedule.
type SolverConfig struct {
	BaseLR           float64  `yaml:"BASE_LR" json:"BASE_LR"`
	BiasLRFactor     float64  `yaml:"BIAS_LR_FACTOR" json:"BIAS_LR_FACTOR"`
	Momentum         float64  `yaml:"MOMENTUM" json:"MOMENTUM"`
	WeightDecay      float64  `yaml:"WEIGHT_DECAY" json:"WEIGHT_DECAY"`
	WeightDecayBias  float64  `yaml:"WEIGHT_DECAY_BIAS" json:"WEIGHT_DECAY_BIAS"`
	Gamma            float64  `yaml:"GAMMA" json:"GAMMA"`
	Steps            IntTuple `yaml:"STEPS" json:"STEPS"`
	MaxIter          int      `yaml:"MAX_ITER" json:"MAX_ITER"`
	WarmupFactor     float64  `yaml:"WARMUP_FACTOR" json:"WARMUP_FACTOR"`
	WarmupIters      int      `yaml:"WARMUP_ITERS" json:"WARMUP_ITERS"`
	WarmupMethod     string   `yaml:"WARMUP_METHOD" json:"WARMUP_METHOD"`
	ImsPerBatch      int      `yaml:"IMS_PER_BATCH" json:"IMS_PER_BATCH"`
	CheckpointPeriod int      `yaml:"CHECKPOINT_PERIOD" json:"CHECKPOINT_PERIOD"`
}

// CheckpointPeriodOption returns the checkpoint period as an Option.
// Returns None when checkpointing is disabled (zero or negative period).
func (s *SolverConfig) CheckpointPeriodOption() mo.Option[int] {
	if s.CheckpointPeriod <= 0 {
		return mo.None[int]()
	}
	return mo.Some(s.CheckpointPeriod)
}

// TestConfig controls evaluation.
type TestConfig struct {
	ExpectedResults         []ExpectedResult `yaml:"EXPECTED_RESULTS" json:"EXPECTED_RESULTS"`
	ExpectedResultsSigmaTol float64          `yaml:"EXPECTED_RESULTS_SIGMA_TOL" json:"EXPECTED_RESULTS_SIGMA_TOL"`
	ImsPerBatch             int              `yaml:"IMS_PER_BATCH" json:"IMS_PER_BATCH"`
}

// ExpectedResult pins an evaluation metric to a mean and tolerance for
// regression checks, e.g. ["bbox", "AP", 0.384, 0.003].
type ExpectedResult struct {
	Task   string  `yaml:"task" json:"task"`
	Metric string  `yaml:"metric" json:"metric"`
	Mean   float64 `yaml:"mean" json:"mean"`
	Std    float64 `yaml:"std" json:"std"`
}

// RuntimeConfig is the read side of a hot-reloadable configuration.
// Components observing reloads should hold a RuntimeConfig rather than a
// *Config pointer, which would go stale after a reload.
type RuntimeConfig interface {
	Get() *Config
}

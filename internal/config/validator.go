package config

import (
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/detkit/detconf/internal/registry"
)

// Valid warmup methods for SOLVER.WARMUP_METHOD.
var validWarmupMethods = map[string]bool{
	"constant": true,
	"linear":   true,
}

// Validate checks the resolved config against the schema contract: required
// keys, registry-known component names, tuple arities consistent with the
// conv body geometry, threshold ranges and schedule monotonicity. All
// violations are collected into a single ValidationError.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	geom, geomKnown := registry.ConvBodies.Get(c.Model.Backbone.ConvBody)

	c.validateInput(errs)
	c.validateModel(errs)
	c.validateRPN(errs)
	c.validateROIHeads(errs)
	if geomKnown {
		c.validateGeometry(geom, errs)
	}
	c.validateDatasets(errs)
	c.validateDataLoader(errs)
	c.validateSolver(errs)
	c.validateTest(errs)

	return errs.ToError()
}

func (c *Config) validateInput(errs *ValidationError) {
	if len(c.Input.PixelMean) != 3 {
		errs.Addf("INPUT.PIXEL_MEAN must have 3 elements (got %d)", len(c.Input.PixelMean))
	}
	if len(c.Input.PixelStd) != 3 {
		errs.Addf("INPUT.PIXEL_STD must have 3 elements (got %d)", len(c.Input.PixelStd))
	}
	if c.Input.MinSizeTrain <= 0 {
		errs.Add("INPUT.MIN_SIZE_TRAIN must be > 0")
	}
	if c.Input.MaxSizeTrain < c.Input.MinSizeTrain {
		errs.Add("INPUT.MAX_SIZE_TRAIN must be >= INPUT.MIN_SIZE_TRAIN")
	}
	if c.Input.MinSizeTest <= 0 {
		errs.Add("INPUT.MIN_SIZE_TEST must be > 0")
	}
	if c.Input.MaxSizeTest < c.Input.MinSizeTest {
		errs.Add("INPUT.MAX_SIZE_TEST must be >= INPUT.MIN_SIZE_TEST")
	}
}

func (c *Config) validateModel(errs *ValidationError) {
	m := &c.Model

	if m.MetaArchitecture == "" {
		errs.Add("MODEL.META_ARCHITECTURE is required")
	} else if !registry.MetaArchitectures.Contains(m.MetaArchitecture) {
		errs.Addf("MODEL.META_ARCHITECTURE %q is not registered (known: %s)",
			m.MetaArchitecture, strings.Join(registry.MetaArchitectures.Names(), ", "))
	}

	if m.Backbone.ConvBody == "" {
		errs.Add("MODEL.BACKBONE.CONV_BODY is required")
	} else if !registry.ConvBodies.Contains(m.Backbone.ConvBody) {
		errs.Addf("MODEL.BACKBONE.CONV_BODY %q is not registered (known: %s)",
			m.Backbone.ConvBody, strings.Join(registry.ConvBodies.Names(), ", "))
	}

	if m.Backbone.OutChannels <= 0 {
		errs.Add("MODEL.BACKBONE.OUT_CHANNELS must be > 0")
	}
	if m.Backbone.FreezeConvBodyAt < 0 {
		errs.Add("MODEL.BACKBONE.FREEZE_CONV_BODY_AT must be >= 0")
	}

	if m.Resnets.NumGroups < 1 {
		errs.Add("MODEL.RESNETS.NUM_GROUPS must be >= 1")
	}
	if m.Resnets.WidthPerGroup < 1 {
		errs.Add("MODEL.RESNETS.WIDTH_PER_GROUP must be >= 1")
	}
	if m.Resnets.Res5Dilation != 1 && m.Resnets.Res5Dilation != 2 {
		errs.Addf("MODEL.RESNETS.RES5_DILATION must be 1 or 2 (got %d)", m.Resnets.Res5Dilation)
	}

	if !m.RPNOnly {
		c.validateROIBoxHead(errs)
	}
	if m.MaskOn {
		c.validateROIMaskHead(errs)
	}
}

func (c *Config) validateRPN(errs *ValidationError) {
	rpn := &c.Model.RPN

	checkUnitRange(errs, "MODEL.RPN.FG_IOU_THRESHOLD", rpn.FgIoUThreshold)
	checkUnitRange(errs, "MODEL.RPN.BG_IOU_THRESHOLD", rpn.BgIoUThreshold)
	checkUnitRange(errs, "MODEL.RPN.NMS_THRESH", rpn.NMSThresh)
	checkUnitRange(errs, "MODEL.RPN.POSITIVE_FRACTION", rpn.PositiveFraction)
	if rpn.BgIoUThreshold > rpn.FgIoUThreshold {
		errs.Add("MODEL.RPN.BG_IOU_THRESHOLD must be <= MODEL.RPN.FG_IOU_THRESHOLD")
	}

	if rpn.BatchSizePerImage <= 0 {
		errs.Add("MODEL.RPN.BATCH_SIZE_PER_IMAGE must be > 0")
	}
	for name, n := range map[string]int{
		"PRE_NMS_TOP_N_TRAIN":      rpn.PreNMSTopNTrain,
		"PRE_NMS_TOP_N_TEST":       rpn.PreNMSTopNTest,
		"POST_NMS_TOP_N_TRAIN":     rpn.PostNMSTopNTrain,
		"POST_NMS_TOP_N_TEST":      rpn.PostNMSTopNTest,
		"FPN_POST_NMS_TOP_N_TRAIN": rpn.FPNPostNMSTopNTrain,
		"FPN_POST_NMS_TOP_N_TEST":  rpn.FPNPostNMSTopNTest,
	} {
		if n <= 0 {
			errs.Addf("MODEL.RPN.%s must be > 0", name)
		}
	}

	if len(rpn.AnchorSizes) == 0 {
		errs.Add("MODEL.RPN.ANCHOR_SIZES must not be empty")
	}
	if len(rpn.AspectRatios) == 0 {
		errs.Add("MODEL.RPN.ASPECT_RATIOS must not be empty")
	} else if !lo.EveryBy(rpn.AspectRatios, func(r float64) bool { return r > 0 }) {
		errs.Add("MODEL.RPN.ASPECT_RATIOS must all be > 0")
	}

	// The anchor generator places one size per pyramid level with FPN, and
	// every size on a single map otherwise.
	if rpn.UseFPN {
		if len(rpn.AnchorStride) != len(rpn.AnchorSizes) {
			errs.Addf("MODEL.RPN.ANCHOR_STRIDE must match ANCHOR_SIZES with USE_FPN (got %d strides, %d sizes)",
				len(rpn.AnchorStride), len(rpn.AnchorSizes))
		}
	} else if len(rpn.AnchorStride) != 1 {
		errs.Addf("MODEL.RPN.ANCHOR_STRIDE must have exactly 1 element without USE_FPN (got %d)",
			len(rpn.AnchorStride))
	}
}

func (c *Config) validateROIHeads(errs *ValidationError) {
	h := &c.Model.ROIHeads

	checkUnitRange(errs, "MODEL.ROI_HEADS.SCORE_THRESH", h.ScoreThresh)
	checkUnitRange(errs, "MODEL.ROI_HEADS.NMS", h.NMS)
	checkUnitRange(errs, "MODEL.ROI_HEADS.FG_IOU_THRESHOLD", h.FgIoUThreshold)
	checkUnitRange(errs, "MODEL.ROI_HEADS.BG_IOU_THRESHOLD", h.BgIoUThreshold)
	checkUnitRange(errs, "MODEL.ROI_HEADS.POSITIVE_FRACTION", h.PositiveFraction)

	if h.DetectionsPerImg <= 0 {
		errs.Add("MODEL.ROI_HEADS.DETECTIONS_PER_IMG must be > 0")
	}
	if h.BatchSizePerImage <= 0 {
		errs.Add("MODEL.ROI_HEADS.BATCH_SIZE_PER_IMAGE must be > 0")
	}
	if len(h.BboxRegWeights) != 4 {
		errs.Addf("MODEL.ROI_HEADS.BBOX_REG_WEIGHTS must have 4 elements (got %d)", len(h.BboxRegWeights))
	}
}

func (c *Config) validateROIBoxHead(errs *ValidationError) {
	box := &c.Model.ROIBoxHead

	if box.FeatureExtractor == "" {
		errs.Add("MODEL.ROI_BOX_HEAD.FEATURE_EXTRACTOR is required")
	} else if !registry.BoxFeatureExtractors.Contains(box.FeatureExtractor) {
		errs.Addf("MODEL.ROI_BOX_HEAD.FEATURE_EXTRACTOR %q is not registered (known: %s)",
			box.FeatureExtractor, strings.Join(registry.BoxFeatureExtractors.Names(), ", "))
	}

	if box.Predictor == "" {
		errs.Add("MODEL.ROI_BOX_HEAD.PREDICTOR is required")
	} else if !registry.BoxPredictors.Contains(box.Predictor) {
		errs.Addf("MODEL.ROI_BOX_HEAD.PREDICTOR %q is not registered (known: %s)",
			box.Predictor, strings.Join(registry.BoxPredictors.Names(), ", "))
	}

	if box.PoolerResolution <= 0 {
		errs.Add("MODEL.ROI_BOX_HEAD.POOLER_RESOLUTION must be > 0")
	}
	if box.PoolerSamplingRatio < 0 {
		errs.Add("MODEL.ROI_BOX_HEAD.POOLER_SAMPLING_RATIO must be >= 0")
	}
	if box.NumClasses < 2 {
		errs.Addf("MODEL.ROI_BOX_HEAD.NUM_CLASSES must be >= 2, including background (got %d)", box.NumClasses)
	}
	if box.MLPHeadDim <= 0 {
		errs.Add("MODEL.ROI_BOX_HEAD.MLP_HEAD_DIM must be > 0")
	}
	checkPoolerScales(errs, "MODEL.ROI_BOX_HEAD.POOLER_SCALES", box.PoolerScales)
}

func (c *Config) validateROIMaskHead(errs *ValidationError) {
	mask := &c.Model.ROIMaskHead

	if mask.FeatureExtractor == "" {
		errs.Add("MODEL.ROI_MASK_HEAD.FEATURE_EXTRACTOR is required")
	} else if !registry.MaskFeatureExtractors.Contains(mask.FeatureExtractor) {
		errs.Addf("MODEL.ROI_MASK_HEAD.FEATURE_EXTRACTOR %q is not registered (known: %s)",
			mask.FeatureExtractor, strings.Join(registry.MaskFeatureExtractors.Names(), ", "))
	}

	if mask.Predictor == "" {
		errs.Add("MODEL.ROI_MASK_HEAD.PREDICTOR is required")
	} else if !registry.MaskPredictors.Contains(mask.Predictor) {
		errs.Addf("MODEL.ROI_MASK_HEAD.PREDICTOR %q is not registered (known: %s)",
			mask.Predictor, strings.Join(registry.MaskPredictors.Names(), ", "))
	}

	if mask.Resolution <= 0 {
		errs.Add("MODEL.ROI_MASK_HEAD.RESOLUTION must be > 0")
	}
	if !mask.ShareBoxFeatureExtractor {
		checkPoolerScales(errs, "MODEL.ROI_MASK_HEAD.POOLER_SCALES", mask.PoolerScales)
	}
}

// validateGeometry enforces the cross-section constraints implied by the
// conv body: pyramid bodies need FPN-aware heads and matching tuple
// arities, single-map bodies need a single pooling scale at the body's
// feature stride.
func (c *Config) validateGeometry(geom registry.ConvBodyGeometry, errs *ValidationError) {
	rpn := &c.Model.RPN
	body := c.Model.Backbone.ConvBody

	if geom.FPN {
		if !rpn.UseFPN {
			errs.Addf("MODEL.RPN.USE_FPN must be true for conv body %s", body)
		}
		if len(rpn.AnchorStride) != geom.AnchorLevels {
			errs.Addf("MODEL.RPN.ANCHOR_STRIDE must have %d elements for conv body %s (got %d)",
				geom.AnchorLevels, body, len(rpn.AnchorStride))
		}
		if !c.Model.RPNOnly {
			if !c.Model.ROIHeads.UseFPN {
				errs.Addf("MODEL.ROI_HEADS.USE_FPN must be true for conv body %s", body)
			}
			if len(c.Model.ROIBoxHead.PoolerScales) != geom.PoolerLevels {
				errs.Addf("MODEL.ROI_BOX_HEAD.POOLER_SCALES must have %d elements for conv body %s (got %d)",
					geom.PoolerLevels, body, len(c.Model.ROIBoxHead.PoolerScales))
			}
			c.validateHeadFPNCompat(true, errs)
		}
		if c.DataLoader.SizeDivisibility != 32 {
			errs.Addf("DATALOADER.SIZE_DIVISIBILITY must be 32 for conv body %s (got %d)",
				body, c.DataLoader.SizeDivisibility)
		}
		return
	}

	if rpn.UseFPN {
		errs.Addf("MODEL.RPN.USE_FPN must be false for single-map conv body %s", body)
	}
	if c.Model.ROIHeads.UseFPN {
		errs.Addf("MODEL.ROI_HEADS.USE_FPN must be false for single-map conv body %s", body)
	}
	if !c.Model.RPNOnly {
		if len(c.Model.ROIBoxHead.PoolerScales) == 1 && geom.FeatureStride > 0 {
			want := 1.0 / float64(geom.FeatureStride)
			if math.Abs(c.Model.ROIBoxHead.PoolerScales[0]-want) > 1e-9 {
				errs.Addf("MODEL.ROI_BOX_HEAD.POOLER_SCALES[0] must be 1/%d for conv body %s (got %g)",
					geom.FeatureStride, body, c.Model.ROIBoxHead.PoolerScales[0])
			}
		}
		c.validateHeadFPNCompat(false, errs)
	}
}

// validateHeadFPNCompat checks that FPN-only heads are not paired with
// single-map bodies and vice versa.
func (c *Config) validateHeadFPNCompat(fpn bool, errs *ValidationError) {
	if spec, ok := registry.BoxFeatureExtractors.Get(c.Model.ROIBoxHead.FeatureExtractor); ok && spec.FPN != fpn {
		if fpn {
			errs.Addf("MODEL.ROI_BOX_HEAD.FEATURE_EXTRACTOR %q does not support FPN features",
				c.Model.ROIBoxHead.FeatureExtractor)
		} else {
			errs.Addf("MODEL.ROI_BOX_HEAD.FEATURE_EXTRACTOR %q requires FPN features",
				c.Model.ROIBoxHead.FeatureExtractor)
		}
	}
	if spec, ok := registry.BoxPredictors.Get(c.Model.ROIBoxHead.Predictor); ok && spec.FPN != fpn {
		if fpn {
			errs.Addf("MODEL.ROI_BOX_HEAD.PREDICTOR %q does not support FPN features",
				c.Model.ROIBoxHead.Predictor)
		} else {
			errs.Addf("MODEL.ROI_BOX_HEAD.PREDICTOR %q requires FPN features",
				c.Model.ROIBoxHead.Predictor)
		}
	}
}

func (c *Config) validateDatasets(errs *ValidationError) {
	if len(c.Datasets.Train) == 0 {
		errs.Add("DATASETS.TRAIN must name at least one dataset")
	}
	if len(c.Datasets.Test) == 0 {
		errs.Add("DATASETS.TEST must name at least one dataset")
	}
}

func (c *Config) validateDataLoader(errs *ValidationError) {
	if c.DataLoader.NumWorkers < 0 {
		errs.Add("DATALOADER.NUM_WORKERS must be >= 0")
	}
	if c.DataLoader.SizeDivisibility < 0 {
		errs.Add("DATALOADER.SIZE_DIVISIBILITY must be >= 0")
	}
}

func (c *Config) validateSolver(errs *ValidationError) {
	s := &c.Solver

	if s.BaseLR <= 0 {
		errs.Add("SOLVER.BASE_LR must be > 0")
	}
	if s.MaxIter <= 0 {
		errs.Add("SOLVER.MAX_ITER must be > 0")
	}
	if s.ImsPerBatch <= 0 {
		errs.Add("SOLVER.IMS_PER_BATCH must be > 0")
	}
	if s.Gamma <= 0 || s.Gamma > 1 {
		errs.Addf("SOLVER.GAMMA must be in (0, 1] (got %g)", s.Gamma)
	}
	if s.Momentum < 0 || s.Momentum >= 1 {
		errs.Addf("SOLVER.MOMENTUM must be in [0, 1) (got %g)", s.Momentum)
	}
	if s.WeightDecay < 0 {
		errs.Add("SOLVER.WEIGHT_DECAY must be >= 0")
	}
	if s.WeightDecayBias < 0 {
		errs.Add("SOLVER.WEIGHT_DECAY_BIAS must be >= 0")
	}
	if s.CheckpointPeriod < 0 {
		errs.Add("SOLVER.CHECKPOINT_PERIOD must be >= 0")
	}

	if !validWarmupMethods[s.WarmupMethod] {
		errs.Addf("SOLVER.WARMUP_METHOD is invalid (got %q, valid: constant, linear)", s.WarmupMethod)
	}
	if s.WarmupFactor <= 0 || s.WarmupFactor > 1 {
		errs.Addf("SOLVER.WARMUP_FACTOR must be in (0, 1] (got %g)", s.WarmupFactor)
	}
	if s.WarmupIters < 0 {
		errs.Add("SOLVER.WARMUP_ITERS must be >= 0")
	}

	for i, step := range s.Steps {
		if step <= 0 || step >= s.MaxIter {
			errs.Addf("SOLVER.STEPS[%d] must be in (0, MAX_ITER) (got %d, MAX_ITER %d)", i, step, s.MaxIter)
		}
		if i > 0 && step <= s.Steps[i-1] {
			errs.Addf("SOLVER.STEPS must be strictly increasing (step %d after %d)", step, s.Steps[i-1])
		}
	}
}

func (c *Config) validateTest(errs *ValidationError) {
	if c.Test.ImsPerBatch <= 0 {
		errs.Add("TEST.IMS_PER_BATCH must be > 0")
	}
	if c.Test.ExpectedResultsSigmaTol <= 0 {
		errs.Add("TEST.EXPECTED_RESULTS_SIGMA_TOL must be > 0")
	}
	for i, res := range c.Test.ExpectedResults {
		if res.Task == "" || res.Metric == "" {
			errs.Addf("TEST.EXPECTED_RESULTS[%d] must name a task and metric", i)
		}
		if res.Std < 0 {
			errs.Addf("TEST.EXPECTED_RESULTS[%d].std must be >= 0", i)
		}
	}
}

// checkUnitRange records an error unless v is within [0, 1].
func checkUnitRange(errs *ValidationError, key string, v float64) {
	if v < 0 || v > 1 {
		errs.Addf("%s must be in [0, 1] (got %g)", key, v)
	}
}

// checkPoolerScales validates that pooling scales are positive and
// non-increasing (coarser levels pool at smaller scales).
func checkPoolerScales(errs *ValidationError, key string, scales FloatTuple) {
	if len(scales) == 0 {
		errs.Addf("%s must not be empty", key)
		return
	}
	for i, scale := range scales {
		if scale <= 0 || scale > 1 {
			errs.Addf("%s[%d] must be in (0, 1] (got %g)", key, i, scale)
		}
		if i > 0 && scale > scales[i-1] {
			errs.Addf("%s must be non-increasing (scale %g after %g)", key, scale, scales[i-1])
		}
	}
}

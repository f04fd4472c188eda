package registry

// Component descriptors. These carry the schema-relevant metadata of each
// component; the framework side of a component (its computation graph) is
// out of scope here.

// ArchSpec describes a meta-architecture.
type ArchSpec struct {
	// BoxHead reports whether the architecture runs ROI box heads.
	// RPN-only proposal networks do not.
	BoxHead bool
}

// ConvBodyGeometry describes the feature-map geometry a conv body
// produces. The validator derives tuple-arity requirements from it.
type ConvBodyGeometry struct {
	// FPN reports whether the body emits a feature pyramid.
	FPN bool
	// FeatureStride is the stride of the single feature map for
	// non-pyramid bodies. Zero for FPN bodies.
	FeatureStride int
	// AnchorLevels is the expected length of RPN.ANCHOR_STRIDE.
	AnchorLevels int
	// PoolerLevels is the expected length of ROI head POOLER_SCALES.
	PoolerLevels int
}

// HeadSpec describes a feature extractor or predictor.
type HeadSpec struct {
	// FPN reports whether the head expects pyramid features.
	FPN bool
}

// Global registries, mirroring the framework's component registries.
var (
	MetaArchitectures     = New[ArchSpec]("META_ARCHITECTURE")
	ConvBodies            = New[ConvBodyGeometry]("CONV_BODY")
	RPNHeads              = New[HeadSpec]("RPN_HEAD")
	BoxFeatureExtractors  = New[HeadSpec]("ROI_BOX_FEATURE_EXTRACTOR")
	BoxPredictors         = New[HeadSpec]("ROI_BOX_PREDICTOR")
	MaskFeatureExtractors = New[HeadSpec]("ROI_MASK_FEATURE_EXTRACTOR")
	MaskPredictors        = New[HeadSpec]("ROI_MASK_PREDICTOR")
)

func init() {
	MetaArchitectures.MustRegister("GeneralizedRCNN", ArchSpec{BoxHead: true})

	// Single-map ResNet bodies. C4 bodies stop at res4 (stride 16) and run
	// res5 inside the box head; C5 bodies keep res5 in the backbone.
	singleMap := func(stride int) ConvBodyGeometry {
		return ConvBodyGeometry{FeatureStride: stride, AnchorLevels: 1, PoolerLevels: 1}
	}
	ConvBodies.MustRegister("R-50-C4", singleMap(16))
	ConvBodies.MustRegister("R-50-C5", singleMap(32))
	ConvBodies.MustRegister("R-101-C4", singleMap(16))
	ConvBodies.MustRegister("R-101-C5", singleMap(32))

	// Pyramid bodies: four pooling levels (P2-P5) plus P6 for RPN anchors.
	fpn := ConvBodyGeometry{FPN: true, AnchorLevels: 5, PoolerLevels: 4}
	ConvBodies.MustRegister("R-50-FPN", fpn)
	ConvBodies.MustRegister("R-101-FPN", fpn)
	ConvBodies.MustRegister("R-152-FPN", fpn)
	ConvBodies.MustRegister("X-101-32x8d-FPN", fpn)

	RPNHeads.MustRegister("SingleConvRPNHead", HeadSpec{})

	BoxFeatureExtractors.MustRegister("ResNet50Conv5ROIFeatureExtractor", HeadSpec{})
	BoxFeatureExtractors.MustRegister("FPN2MLPFeatureExtractor", HeadSpec{FPN: true})
	BoxFeatureExtractors.MustRegister("FPNXconv1fcFeatureExtractor", HeadSpec{FPN: true})

	BoxPredictors.MustRegister("FastRCNNPredictor", HeadSpec{})
	BoxPredictors.MustRegister("FPNPredictor", HeadSpec{FPN: true})

	MaskFeatureExtractors.MustRegister("ResNet50Conv5ROIFeatureExtractor", HeadSpec{})
	MaskFeatureExtractors.MustRegister("MaskRCNNFPNFeatureExtractor", HeadSpec{FPN: true})

	MaskPredictors.MustRegister("MaskRCNNC4Predictor", HeadSpec{})
	MaskPredictors.MustRegister("MaskRCNNConv1x1Predictor", HeadSpec{})
}

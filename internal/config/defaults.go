package config

// Default returns the base configuration tree.
//
// Experiment files overlay this tree: a key absent from the file keeps its
// default. The values reproduce the consuming framework's defaults for the
// Faster R-CNN family, so an empty experiment file resolves to a runnable
// R-50-C4 baseline.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			MinSizeTrain: 800,
			MaxSizeTrain: 1333,
			MinSizeTest:  800,
			MaxSizeTest:  1333,
			PixelMean:    FloatTuple{102.9801, 115.9465, 122.7717},
			PixelStd:     FloatTuple{1.0, 1.0, 1.0},
			ToBGR255:     true,
		},
		Model: ModelConfig{
			MetaArchitecture: "GeneralizedRCNN",
			Weight:           "",
			Device:           "cuda",
			RPNOnly:          false,
			MaskOn:           false,
			Backbone: BackboneConfig{
				ConvBody:         "R-50-C4",
				FreezeConvBodyAt: 2,
				OutChannels:      1024,
			},
			Resnets: ResnetsConfig{
				NumGroups:       1,
				WidthPerGroup:   64,
				StrideIn1x1:     true,
				TransFunc:       "BottleneckWithFixedBatchNorm",
				StemFunc:        "StemWithFixedBatchNorm",
				StemOutChannels: 64,
				Res2OutChannels: 256,
				Res5Dilation:    1,
			},
			RPN: RPNConfig{
				UseFPN:              false,
				AnchorSizes:         IntTuple{32, 64, 128, 256, 512},
				AnchorStride:        IntTuple{16},
				AspectRatios:        FloatTuple{0.5, 1.0, 2.0},
				StraddleThresh:      0,
				FgIoUThreshold:      0.7,
				BgIoUThreshold:      0.3,
				BatchSizePerImage:   256,
				PositiveFraction:    0.5,
				PreNMSTopNTrain:     12000,
				PreNMSTopNTest:      6000,
				PostNMSTopNTrain:    2000,
				PostNMSTopNTest:     1000,
				NMSThresh:           0.7,
				MinSize:             0,
				FPNPostNMSTopNTrain: 2000,
				FPNPostNMSTopNTest:  2000,
			},
			ROIHeads: ROIHeadsConfig{
				UseFPN:            false,
				ScoreThresh:       0.05,
				NMS:               0.5,
				DetectionsPerImg:  100,
				FgIoUThreshold:    0.5,
				BgIoUThreshold:    0.5,
				BatchSizePerImage: 512,
				PositiveFraction:  0.25,
				BboxRegWeights:    FloatTuple{10.0, 10.0, 5.0, 5.0},
			},
			ROIBoxHead: ROIBoxConfig{
				FeatureExtractor:    "ResNet50Conv5ROIFeatureExtractor",
				Predictor:           "FastRCNNPredictor",
				PoolerResolution:    14,
				PoolerScales:        FloatTuple{1.0 / 16},
				PoolerSamplingRatio: 0,
				NumClasses:          81,
				MLPHeadDim:          1024,
			},
			ROIMaskHead: ROIMaskConfig{
				FeatureExtractor:         "ResNet50Conv5ROIFeatureExtractor",
				Predictor:                "MaskRCNNC4Predictor",
				PoolerResolution:         14,
				PoolerScales:             FloatTuple{1.0 / 16},
				PoolerSamplingRatio:      0,
				ConvLayers:               IntTuple{256, 256, 256, 256},
				Resolution:               14,
				ShareBoxFeatureExtractor: true,
				MLPHeadDim:               1024,
			},
		},
		Datasets: DatasetsConfig{
			Train: StringTuple{},
			Test:  StringTuple{},
		},
		DataLoader: DataLoaderConfig{
			NumWorkers:          4,
			SizeDivisibility:    0,
			AspectRatioGrouping: true,
		},
		Solver: SolverConfig{
			BaseLR:           0.001,
			BiasLRFactor:     2,
			Momentum:         0.9,
			WeightDecay:      0.0005,
			WeightDecayBias:  0,
			Gamma:            0.1,
			Steps:            IntTuple{30000},
			MaxIter:          40000,
			WarmupFactor:     1.0 / 3,
			WarmupIters:      500,
			WarmupMethod:     "linear",
			ImsPerBatch:      16,
			CheckpointPeriod: 2500,
		},
		Test: TestConfig{
			ExpectedResults:         []ExpectedResult{},
			ExpectedResultsSigmaTol: 4,
			ImsPerBatch:             8,
		},
		OutputDir: ".",
	}
}

package gemini

import "github.com/mhpenta/datasetgen"

var supportedAspectRatios = []datasetgen.AspectRatio{
	datasetgen.AspectRatio1x1,
	datasetgen.AspectRatio16x9,
	datasetgen.AspectRatio9x16,
	datasetgen.AspectRatio4x3,
	datasetgen.AspectRatio3x4,
}

// Imagen4Info is the model info for Imagen 4, the text-to-image model.
var Imagen4Info = datasetgen.ModelInfo{
	Name:         "imagen-4",
	APIModelName: APIModelImagen4,

	Capabilities: datasetgen.ModelCapabilities{
		SupportsTextToImage: true,
		MaxOutputImages:     4,
	},

	SupportedAspectRatios: supportedAspectRatios,

	// Imagen is billed per image; only the request rate matters here.
	RateLimits: datasetgen.RateLimits{
		RequestsPerMinute: 10,
	},
}

// FlashImageInfo is the model info for Gemini 2.5 Flash Image.
var FlashImageInfo = datasetgen.ModelInfo{
	Name:         "gemini-2.5-flash-image",
	APIModelName: APIModelFlashImage,

	Capabilities: datasetgen.ModelCapabilities{
		SupportsVariation: true,
		MaxOutputImages:   1,
	},

	SupportedAspectRatios: supportedAspectRatios,

	RateLimits: datasetgen.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 500, // ~500 RPM for Tier 1
	},
}

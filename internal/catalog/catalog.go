// Package catalog defines the fixed set of crop disease classes the model
// recognizes, together with their pesticide recommendations and disease
// detail records. The declaration order of the classes is the single source
// of truth for the model's output vector: index i of the classifier output
// corresponds to Class(i). Never re-sort these tables.
package catalog

// Class identifies one entry of the fixed label set.
type Class int

const (
	PepperBellBacterialSpot Class = iota
	PepperBellHealthy
	PotatoEarlyBlight
	PotatoLateBlight
	PotatoHealthy
	TomatoBacterialSpot
	TomatoEarlyBlight
	TomatoLateBlight
	TomatoLeafMold
	TomatoSeptoriaLeafSpot
	TomatoSpiderMites
	TomatoTargetSpot
	TomatoYellowLeafCurlVirus
	TomatoMosaicVirus
	TomatoHealthy

	// NumClasses is the length of the model output vector.
	NumClasses = 15
)

// Sentinel values used when the classifier confidence falls below the
// rejection threshold.
const (
	UnknownLabel          = "Unknown or not a leaf image"
	UnknownRecommendation = "Unable to predict. Please upload a crop leaf image only."
)

// HealthyRecommendation is the fixed text attached to the three healthy
// classes.
const HealthyRecommendation = "No disease detected. No treatment required."

// classNames holds the label strings in model output order. The strings
// match the class directory names the model was trained against, including
// their inconsistent underscore style.
var classNames = [NumClasses]string{
	"Pepper_bell__Bacterial_spot",
	"Pepper_bell__healthy",
	"Potato___Early_blight",
	"Potato___Late_blight",
	"Potato___healthy",
	"Tomato_Bacterial_spot",
	"Tomato_Early_blight",
	"Tomato_Late_blight",
	"Tomato_Leaf_Mold",
	"Tomato_Sepitoria_leaf_spot",
	"Tomato_Spider_mites_2spots",
	"Tomato_Target_Spot",
	"Tomato_Tomato_YellowLeafCurl_Virus",
	"Tomato_Tomato_mosaic_virus",
	"Tomato_healthy",
}

var pesticides = [NumClasses]string{
	"Use copper-based bactericides and crop rotation.",
	HealthyRecommendation,
	"Use chlorothalonil or mancozeb fungicides.",
	"Apply preventive fungicides and resistant varieties.",
	HealthyRecommendation,
	"Use copper-based bactericides, remove infected leaves.",
	"Spray chlorothalonil or mancozeb regularly.",
	"Use appropriate fungicides like cyazofamid.",
	"Use fungicide sprays containing chlorothalonil.",
	"Apply fungicides with pyraclostrobin.",
	"Apply miticides and insecticidal soaps.",
	"Use preventive fungicides promptly.",
	"Control whitefly vectors and remove infected plants.",
	"Use certified disease-free seeds, control aphids.",
	HealthyRecommendation,
}

// Detail is the structured reference record shown next to a known class.
type Detail struct {
	Description string
	Symptoms    string
	Remedies    string
	Prevention  string
	Resources   string
}

var details = [NumClasses]Detail{
	{
		Description: "Bacterial spot causes small, water-soaked lesions on leaves, stems, and fruit that turn dark and scabby.",
		Symptoms:    "Dark angular spots on leaves, leaf drop, and fruit blemishes.",
		Remedies:    "Use copper-based bactericides and remove infected plant debris.",
		Prevention:  "Rotate crops, avoid overhead watering, and use certified disease-free seeds.",
		Resources:   "https://ipm.cahnr.uconn.edu/bacterial-leaf-spot-in-peppers/",
	},
	{
		Description: "The plant appears healthy with no signs of disease.",
		Symptoms:    "No visible symptoms.",
		Remedies:    "No treatment required.",
		Prevention:  "Maintain good agricultural practices.",
	},
	{
		Description: "Early blight causes dark brown spots on leaves surrounded by concentric rings.",
		Symptoms:    "Leaf spots enlarge, causing leaf dieback and reduced yield.",
		Remedies:    "Apply fungicides like chlorothalonil or mancozeb.",
		Prevention:  "Practice crop rotation and remove infected plant material.",
		Resources:   "https://vegpath.plantpath.wisc.edu/diseases/potato-early-blight/",
	},
	{
		Description: "Late blight is a serious disease causing dark lesions on leaves and stems, leading to rapid decay.",
		Symptoms:    "Water-soaked spots on leaves, stem lesions, rotting tubers.",
		Remedies:    "Apply preventive fungicides such as copper compounds.",
		Prevention:  "Use resistant varieties and avoid excessive irrigation.",
		Resources:   "https://ipm.cahnr.uconn.edu/early-blight-and-late-blight-of-potato/",
	},
	{
		Description: "The potato plant is healthy with no disease symptoms.",
		Symptoms:    "No visible symptoms.",
		Remedies:    "No treatment required.",
		Prevention:  "Maintain crop health through best practices.",
	},
	{
		Description: "Bacterial spot on tomato causes brown spots on leaves and fruit.",
		Symptoms:    "Leaf spots, fruit lesions, defoliation.",
		Remedies:    "Use copper-based bactericides and remove infected leaves.",
		Prevention:  "Avoid overhead irrigation and practice crop rotation.",
		Resources:   "https://extension.umn.edu/disease-management/bacterial-spot-tomato-and-pepper",
	},
	{
		Description: "Early blight causes concentric rings on leaf spots.",
		Symptoms:    "Yellowing leaves with brown spots.",
		Remedies:    "Fungicide sprays like mancozeb or chlorothalonil.",
		Prevention:  "Crop rotation and removal of infected debris.",
		Resources:   "https://extension.umn.edu/disease-management/early-blight-tomato-and-potato",
	},
	{
		Description: "Late blight causes dark lesions on leaves and stems.",
		Symptoms:    "Rapid leaf damage and stem cankers.",
		Remedies:    "Use fungicides like cyazofamid.",
		Prevention:  "Use resistant varieties and avoid wet conditions.",
		Resources:   "https://ipm.cahnr.uconn.edu/early-blight-and-late-blight-of-potato/",
	},
	{
		Description: "Leaf mold causes yellow spots on upper leaf surfaces and mold on undersides.",
		Symptoms:    "Yellowing and curling of leaves.",
		Remedies:    "Fungicide sprays containing chlorothalonil.",
		Prevention:  "Ensure good air circulation and avoid overhead watering.",
		Resources:   "https://agritech.tnau.ac.in/crop_protection/tomato_diseases_6.html",
	},
	{
		Description: "Septoria leaf spot causes small circular spots on leaves.",
		Symptoms:    "Leaf defoliation leading to reduced yield.",
		Remedies:    "Handle with fungicides containing pyraclostrobin.",
		Prevention:  "Remove infected leaves and crop debris.",
		Resources:   "https://extension.umn.edu/disease-management/bacterial-spot-tomato-and-pepper",
	},
	{
		Description: "Damage by spider mites causing two spots on affected areas.",
		Symptoms:    "Yellowing leaves with small spots.",
		Remedies:    "Use miticides and insecticidal soaps.",
		Prevention:  "Control weeds and maintain adequate irrigation.",
		Resources:   "https://ipm.ucanr.edu/agriculture/tomato/tomato-yellow-leaf-curl/",
	},
	{
		Description: "Target spot causes large brown lesions with concentric rings.",
		Symptoms:    "Large leaf spots that cause defoliation.",
		Remedies:    "Prompt use of preventive fungicides.",
		Prevention:  "Crop rotation and crop residue management.",
		Resources:   "https://extension.umn.edu/disease-management/bacterial-spot-tomato-and-pepper",
	},
	{
		Description: "A viral disease causing yellowing and curling of leaves.",
		Symptoms:    "Leaf curl, yellowing, stunted growth.",
		Remedies:    "Control whitefly vector and remove infected plants.",
		Prevention:  "Use resistant varieties and reflective mulches.",
		Resources:   "https://agriculture.vic.gov.au/biosecurity/plant-diseases/vegetable-diseases/tomato-yellow-leaf-curl-virus",
	},
	{
		Description: "Mosaic virus causes mottled leaves with light and dark green patches.",
		Symptoms:    "Leaf deformation and stunted plants.",
		Remedies:    "Use certified disease-free seeds and control aphids.",
		Prevention:  "Sanitize tools and remove infected plants.",
		Resources:   "https://ipm.ucanr.edu/agriculture/tomato/tomato-yellow-leaf-curl/#gsc.tab=0",
	},
	{
		Description: "Healthy tomato plant with no disease symptoms.",
		Symptoms:    "No visible symptoms.",
		Remedies:    "No treatment required.",
		Prevention:  "Follow good agricultural practices.",
	},
}

// Valid reports whether c is a member of the closed class set.
func (c Class) Valid() bool {
	return c >= 0 && c < NumClasses
}

// String returns the label in the exact form the training data used.
func (c Class) String() string {
	if !c.Valid() {
		return UnknownLabel
	}
	return classNames[c]
}

// Pesticide returns the short recommendation text for c.
func (c Class) Pesticide() string {
	if !c.Valid() {
		return UnknownRecommendation
	}
	return pesticides[c]
}

// Detail returns the structured disease record for c.
func (c Class) Detail() (Detail, bool) {
	if !c.Valid() {
		return Detail{}, false
	}
	return details[c], true
}

// Labels returns the class labels in model output order.
func Labels() []string {
	out := make([]string, NumClasses)
	copy(out, classNames[:])
	return out
}

// ByLabel resolves a stored label string back to its class. The sentinel
// unknown label and anything else outside the catalog report ok == false.
func ByLabel(label string) (Class, bool) {
	for i, name := range classNames {
		if name == label {
			return Class(i), true
		}
	}
	return Class(-1), false
}

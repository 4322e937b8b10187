// Package catalog holds the fixed choice lists offered by the profile and question forms.
package catalog

import "github.com/mrhat05/Doubtroom/core"

// Custom is the reserved choice meaning the user supplies free text instead.
const Custom = "custom"

// NonApplicable is the study type stored for faculty members.
const NonApplicable = "non-applicable"

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var (
	Roles = []Choice{
		{Value: "student", Label: "Student"},
		{Value: "faculty", Label: "Faculty"},
	}

	Genders = []Choice{
		{Value: "male", Label: "Male"},
		{Value: "female", Label: "Female"},
		{Value: "other", Label: "Other"},
		{Value: "prefer_not_to_say", Label: "Prefer not to say"},
	}

	StudyTypes = []Choice{
		{Value: "btech", Label: "Bachelor's Degree (B.Tech)"},
		{Value: "bs_ms", Label: "Bachelor's + Master's Degree (B.S - M.S / BS - MS / B.Tech - M.Tech / BT - MT)"},
		{Value: "mtech", Label: "Master's Degree (M.Tech)"},
		{Value: "msc", Label: "Master's Degree (M.Sc.)"},
		{Value: "mba", Label: "Master's Degree (MBA)"},
		{Value: "phd", Label: "Doctorate (Ph.D.)"},
	}

	Branches = []Choice{
		{Value: "biotechnology_biochemical_engineering", Label: "Biotechnology & Biochemical Engineering"},
		{Value: "chemical_engineering", Label: "Chemical Engineering"},
		{Value: "civil_engineering", Label: "Civil Engineering"},
		{Value: "structural_engineering", Label: "Structural Engineering"},
		{Value: "geo_technical_engineering", Label: "Geo-technical Engineering"},
		{Value: "transportation_engineering", Label: "Transportation Engineering"},
		{Value: "environmental_engineering", Label: "Environmental Engineering"},
		{Value: "water_resources_engineering", Label: "Water Resources Engineering"},
		{Value: "hydroinformatics_engineering", Label: "Hydroinformatics Engineering"},
		{Value: "seismic_science_engineering", Label: "Seismic Science and Engineering"},
		{Value: "computer_science_engineering", Label: "Computer Science & Engineering"},
		{Value: "artificial_intelligence", Label: "Artificial Intelligence"},
		{Value: "cyber_security", Label: "Cyber Security"},
		{Value: "data_science_engineering", Label: "Data Science and Engineering"},
		{Value: "electrical_engineering", Label: "Electrical Engineering"},
		{Value: "power_electronics_drives", Label: "Power Electronics & Drives"},
		{Value: "power_system_engineering", Label: "Power System Engineering"},
		{Value: "instrumentation_engineering", Label: "Instrumentation Engineering"},
		{Value: "integrated_energy_system", Label: "Integrated Energy System"},
		{Value: "electronics_instrumentation_engineering", Label: "Electronics And Instrumentation Engineering"},
		{Value: "electronics_communication_engineering", Label: "Electronics and Communication Engineering"},
		{Value: "communication_signal_processing", Label: "Communication Systems & Signal Processing"},
		{Value: "vlsi_design", Label: "VLSI Design"},
		{Value: "mechanical_engineering", Label: "Mechanical Engineering"},
		{Value: "material_science_engineering", Label: "Material Science and Engineering"},
		{Value: "thermal_science_engineering", Label: "Thermal Science and Engineering"},
		{Value: "manufacturing_technology", Label: "Manufacturing Technology"},
		{Value: "automotive_engineering", Label: "Automotive Engineering"},
		{Value: "machine_design", Label: "Machine Design"},
		{Value: "production_engineering", Label: "Production Engineering"},
		{Value: "computer_integrated_manufacturing", Label: "Computer Integrated Manufacturing"},
		{Value: "humanities_social_sciences_management", Label: "Humanities & Social Sciences and Management"},
		{Value: "physics", Label: "Physics"},
		{Value: "engineering_physics", Label: "Engineering Physics"},
		{Value: "chemistry", Label: "Chemistry"},
		{Value: "mathematics_computing", Label: "Mathematics and Computing"},
		{Value: "mathematics", Label: "Mathematics"},
		{Value: "computational_mathematics", Label: "Computational Mathematics"},
		{Value: Custom, Label: "Other (Specify)"},
	}

	Colleges = []Choice{
		{Value: "nit_agartala", Label: "National Institute of Technology Agartala"},
		{Value: "iiit_agartala", Label: "Indian Institute of Information Technology Agartala"},
		{Value: "iit_bombay", Label: "Indian Institute of Technology Bombay"},
		{Value: "iit_delhi", Label: "Indian Institute of Technology Delhi"},
		{Value: "iit_madras", Label: "Indian Institute of Technology Madras"},
		{Value: "iit_kanpur", Label: "Indian Institute of Technology Kanpur"},
		{Value: "iit_kharagpur", Label: "Indian Institute of Technology Kharagpur"},
		{Value: "iit_roorkee", Label: "Indian Institute of Technology Roorkee"},
		{Value: "iit_patna", Label: "Indian Institute of Technology Patna"},
		{Value: "iit_hyderabad", Label: "Indian Institute of Technology Hyderabad"},
		{Value: "iit_guwahati", Label: "Indian Institute of Technology Guwahati"},
		{Value: "nit_trichy", Label: "National Institute of Technology Tiruchirappalli"},
		{Value: "nit_surathkal", Label: "National Institute of Technology Karnataka"},
		{Value: "nit_warangal", Label: "National Institute of Technology Warangal"},
		{Value: "vit_vellore", Label: "Vellore Institute of Technology"},
		{Value: "vit_bhopal", Label: "Vellore Institute of Technology Bhopal"},
		{Value: "vit_chennai", Label: "Vellore Institute of Technology Chennai"},
		{Value: "vit_bhubaneswar", Label: "Vellore Institute of Technology Bhubaneswar"},
		{Value: "iiit_basara", Label: "Indian Institute of Information Technology Basara"},
		{Value: "vnr", Label: "(VNR) Vallurupalli Nageswara Rao Vignana Jyothi Institute of Engineering &Technology"},
		{Value: "vit_ap", Label: "Vellore Institute of Technology Andhra Pradesh"},
		{Value: "mit_b", Label: "Manipal Institute of Technology (MIT) Bangalore"},
		{Value: "srm_chennai", Label: "SRM Institute of Science and Technology Chennai"},
		{Value: "srm_ap", Label: "SRM Institute of Science and Technology Andhra Pradesh"},
		{Value: "saveetha", Label: "Saveetha University"},
		{Value: "klu_hyderabad", Label: "KL University Hyderabad"},
		{Value: "vishnu", Label: "Vishnu Institute of Technology"},
		{Value: Custom, Label: "Other (Specify)"},
	}

	TopicSuggestions = []string{
		"Data Structures",
		"Algorithms",
		"Database Management",
		"Operating Systems",
		"Computer Networks",
		"Software Engineering",
		"Machine Learning",
		"Artificial Intelligence",
		"Web Development",
		"Mobile Development",
		"Cloud Computing",
		"Cybersecurity",
		"Blockchain",
		"IoT",
		"Computer Architecture",
	}
)

// Label returns the label of the choice with the given value.
func Label(choices []Choice, value string) (string, bool) {
	for _, c := range choices {
		if c.Value == value {
			return c.Label, true
		}
	}
	return "", false
}

// Has reports whether value is one of the choices.
func Has(choices []Choice, value string) bool {
	_, ok := Label(choices, value)
	return ok
}

// NormalizeBranch turns free text into a branch key: lowercased, whitespace runs replaced by "_".
func NormalizeBranch(s string) string {
	return core.Slugify(s)
}

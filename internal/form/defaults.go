package form

func ptr(f float64) *float64 { return &f }

// DefaultSchema returns the built-in four step intake flow.
func DefaultSchema() Schema {
	return Schema{
		Version: 1,
		Description: Bilingual{
			Nepali:  "स्वर्णबिन्दु प्राशन दर्ता फारम",
			English: "Swarnabindu Prashan registration form",
		},
		Steps: []FormStep{
			childStep(),
			healthStep(),
			examinationStep(),
			doseStep(),
		},
	}
}

func childStep() FormStep {
	return FormStep{
		ID:          "step1",
		Title:       Bilingual{Nepali: "बालकको जानकारी", English: "Child Information"},
		Description: Bilingual{Nepali: "बाल/बालिकाको आधारभूत जानकारी", English: "Basic child information"},
		Questions: []Question{
			{
				ID: FieldChildName, Label: "बाल/बालिकाको नाम", LabelEn: "Child's Name",
				Type: TypeText, Required: true, Placeholder: "पूरा नाम लेख्नुहोस्",
				Validation: &Validation{Min: ptr(2), Max: ptr(100)},
			},
			{
				ID: FieldBirthDate, Label: "जन्म मिति", LabelEn: "Date of Birth",
				Type: TypeDate, Required: true,
			},
			{
				ID: FieldGender, Label: "लिङ्ग", LabelEn: "Gender",
				Type: TypeRadio, Required: true,
				Options: []Option{
					{Value: "male", Label: "पुरुष", LabelEn: "Male"},
					{Value: "female", Label: "महिला", LabelEn: "Female"},
					{Value: "other", Label: "अन्य", LabelEn: "Other"},
				},
			},
			{
				ID: "guardian_name", Label: "अभिभावकको नाम", LabelEn: "Guardian's Name",
				Type: TypeText, Required: true, Placeholder: "बुबा/आमाको नाम",
				Validation: &Validation{Min: ptr(2), Max: ptr(100)},
			},
			{
				ID: "father_name", Label: "बुबाको नाम", LabelEn: "Father's Name",
				Type: TypeText, Validation: &Validation{Max: ptr(100)},
			},
			{
				ID: "mother_name", Label: "आमाको नाम", LabelEn: "Mother's Name",
				Type: TypeText, Validation: &Validation{Max: ptr(100)},
			},
			{
				ID: "guardian_occupation_father", Label: "बाबुको पेशा", LabelEn: "Father's Occupation",
				Type: TypeText, Placeholder: "पेशा उल्लेख गर्नुहोस्",
			},
			{
				ID: "guardian_occupation_mother", Label: "आमाको पेशा", LabelEn: "Mother's Occupation",
				Type: TypeText, Placeholder: "पेशा उल्लेख गर्नुहोस्",
			},
			{
				ID: FieldContactNumber, Label: "सम्पर्क नम्बर", LabelEn: "Contact Number",
				Type: TypeText, Required: true, Placeholder: "98XXXXXXXX",
				Validation: &Validation{Pattern: "^[0-9]{10}$", Message: "१० अंकको मोबाइल नम्बर चाहिन्छ | A 10 digit mobile number is required"},
			},
			{
				ID: "district", Label: "जिल्ला", LabelEn: "District",
				Type: TypeText, Required: true, Validation: &Validation{Min: ptr(2), Max: ptr(60)},
			},
			{
				ID: "palika", Label: "पालिका", LabelEn: "Municipality",
				Type: TypeText, Required: true, Validation: &Validation{Min: ptr(2), Max: ptr(100)},
			},
			{
				ID: "ward", Label: "वडा नं.", LabelEn: "Ward No.",
				Type: TypeNumber, Required: true, Validation: &Validation{Min: ptr(1), Max: ptr(35)},
			},
			{
				ID: "tole", Label: "टोल", LabelEn: "Tole",
				Type: TypeText, Validation: &Validation{Max: ptr(100)},
			},
		},
	}
}

func healthStep() FormStep {
	return FormStep{
		ID:          "step2",
		Title:       Bilingual{Nepali: "स्वास्थ्य पृष्ठभूमि", English: "Health Background"},
		Description: Bilingual{Nepali: "स्वास्थ्य सम्बन्धी विवरण", English: "Health related details"},
		Questions: []Question{
			{
				ID: "drug_allergies", Label: "कुनै औषधि, खाना वा अन्यको एलर्जीहरू भएः", LabelEn: "Any drug, food or other allergies:",
				Type: TypeTextarea, Placeholder: "एलर्जी छ भने विस्तारमा लेख्नुहोस्...",
				Validation: &Validation{Max: ptr(300)},
			},
			{
				ID: "health_history", Label: "स्वास्थ्य इतिवृत्त:", LabelEn: "Health History:",
				Type: TypeTextarea, Placeholder: "विगतका स्वास्थ्य समस्याहरू...",
				Validation: &Validation{Max: ptr(300)},
			},
			{
				ID: "current_medication", Label: "हाल कुनै औषधि वा उपचार लिएको भए:", LabelEn: "Currently taking any medicine or treatment:",
				Type: TypeTextarea, Placeholder: "हाल चलिरहेको औषधि वा उपचार...",
				Validation: &Validation{Max: ptr(200)},
			},
			{
				ID: "vaccination_status", Label: "खोप स्थिति", LabelEn: "Vaccination Status",
				Type: TypeSelect, Required: true,
				Options: []Option{
					{Value: "complete", Label: "पूर्ण", LabelEn: "Complete"},
					{Value: "partial", Label: "आंशिक", LabelEn: "Partial"},
					{Value: "none", Label: "छैन", LabelEn: "None"},
					{Value: "unknown", Label: "थाहा छैन", LabelEn: "Unknown"},
				},
			},
			{
				ID: FieldHealthConditions, Label: "हालको स्वास्थ्य अवस्था", LabelEn: "Current Health Conditions",
				Type: TypeCheckbox,
				Options: []Option{
					{Value: "fever", Label: "ज्वरो", LabelEn: "Fever"},
					{Value: "cold", Label: "रुघाखोकी", LabelEn: "Cold"},
					{Value: "diarrhea", Label: "पखाला", LabelEn: "Diarrhea"},
					{Value: "vomiting", Label: "बान्ता", LabelEn: "Vomiting"},
					{Value: "skin_issues", Label: "छालाको समस्या", LabelEn: "Skin Issues"},
					{Value: "breathing", Label: "श्वासप्रश्वासको समस्या", LabelEn: "Breathing Problems"},
				},
			},
		},
	}
}

func examinationStep() FormStep {
	return FormStep{
		ID:          "step3",
		Title:       Bilingual{Nepali: "बच्चाको शारीरिक जाँच", English: "Physical Examination"},
		Description: Bilingual{Nepali: "बच्चाको शारीरिक मापदण्डहरू", English: "Child's physical measurements"},
		Questions: []Question{
			{
				ID: "weight", Label: "तौल/वजन (कि.ग्रा.)", LabelEn: "Weight (Kg)",
				Type: TypeNumber, Required: true, Placeholder: "किलोग्राममा तौल",
				Validation: &Validation{Min: ptr(0.5), Max: ptr(50)},
			},
			{
				ID: "height", Label: "उचाई (सेन्टिमिटर)", LabelEn: "Height (cm)",
				Type: TypeNumber, Placeholder: "सेन्टिमिटरमा उचाई (वैकल्पिक)",
				Validation: &Validation{Min: ptr(30), Max: ptr(150)},
			},
			{
				ID: "muac", Label: "MUAC - बच्चाको पाखुराको बोलाई नाप (से.मि.)", LabelEn: "MUAC - Mid Upper Arm Circumference (cm)",
				Type: TypeNumber, Placeholder: "सेन्टिमिटरमा MUAC (वैकल्पिक)",
				Validation: &Validation{Min: ptr(5), Max: ptr(30)},
			},
			{
				ID: "head_circumference", Label: "टाउकोको परिधी/बोलाई (से.मि.)", LabelEn: "Head Circumference (cm)",
				Type: TypeNumber, Placeholder: "सेन्टिमिटरमा टाउकोको परिधि (वैकल्पिक)",
				Validation: &Validation{Min: ptr(30), Max: ptr(60)},
			},
			{
				ID: "chest_circumference", Label: "छातीको परिधी/बोलाई (से.मि.)", LabelEn: "Chest Circumference (cm)",
				Type: TypeNumber, Placeholder: "सेन्टिमिटरमा छातीको परिधि (वैकल्पिक)",
				Validation: &Validation{Min: ptr(30), Max: ptr(80)},
			},
		},
	}
}

func doseStep() FormStep {
	return FormStep{
		ID:          "step4",
		Title:       Bilingual{Nepali: "स्वर्णप्राशन मात्रा लग", English: "Swarnabindu Dose Log"},
		Description: Bilingual{Nepali: "स्वर्णप्राशन सेवनको विवरण", English: "Swarnabindu consumption details"},
		Questions: []Question{
			{
				ID: FieldDoseAmount, Label: "सेवन मात्रा (थोपा)", LabelEn: "Dose Amount (drops)",
				Type: TypeSelect, Required: true,
				Options: []Option{
					{Value: "1", Label: "1 थोपा (6 महिना - 1 वर्ष)", LabelEn: "1 drop (6 months - 1 year)"},
					{Value: "2", Label: "2 थोपा (1-2 वर्ष)", LabelEn: "2 drops (1-2 years)"},
					{Value: "4", Label: "4 थोपा (2-5 वर्ष)", LabelEn: "4 drops (2-5 years)"},
				},
			},
			{
				ID: "dose_time", Label: "सेवन समय", LabelEn: "Dose Time",
				Type: TypeText, Required: true, Placeholder: "विहान सूर्योदयदेखि पुष्य नक्षत्र",
			},
			{
				ID: "administered_by", Label: "सेवन गराउने व्यक्ति", LabelEn: "Administered By",
				Type: TypeText, Required: true, Placeholder: "आयुर्वेद चिकित्सक/स्वास्थ्यकर्मी",
				Validation: &Validation{Min: ptr(2), Max: ptr(100)},
			},
			{
				ID: FieldChildReaction, Label: "बालकको प्रतिक्रिया", LabelEn: "Child's Reaction",
				Type: TypeRadio, Required: true,
				Options: []Option{
					{Value: "normal", Label: "सामान्य", LabelEn: "Normal"},
					{Value: "adverse", Label: "कुनै प्रतिक्रिया", LabelEn: "Any Reaction"},
				},
			},
			{
				ID: "adverse_reaction_details", Label: "प्रतिक्रिया विवरण", LabelEn: "Reaction Details",
				Type: TypeTextarea, Required: true,
				Placeholder: "प्रतिक्रिया भएको भए विस्तारमा लेख्नुहोस्...",
				Conditional: &Conditional{DependsOn: FieldChildReaction, Value: "adverse"},
				Validation:  &Validation{Max: ptr(200)},
			},
		},
	}
}

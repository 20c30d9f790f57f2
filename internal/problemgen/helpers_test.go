package problemgen

import "github.com/abhisek/prepgen/internal/curriculum"

func verbalUnit() curriculum.UnitSpec {
	return curriculum.UnitSpec{
		Product: "selective-entry",
		Section: &curriculum.Section{
			Name:        "Verbal Reasoning",
			Category:    curriculum.CategoryVerbal,
			OptionCount: 5,
		},
		SubSkill: &curriculum.SubSkill{
			Name:            "Synonyms and Antonyms",
			Description:     "Identify words of similar or opposite meaning",
			DifficultyRange: []int{1, 2, 3},
			Style:           "Stem names one capitalised target word.",
			Examples: []curriculum.Example{{
				QuestionText: "Which word is most opposite in meaning to GENEROUS?",
				Explanation:  "Generous means giving freely; mean is its opposite.",
			}},
		},
	}
}

func mathsUnit() curriculum.UnitSpec {
	return curriculum.UnitSpec{
		Product: "selective-entry",
		Section: &curriculum.Section{
			Name:        "Mathematical Reasoning",
			Category:    curriculum.CategoryMaths,
			OptionCount: 4,
		},
		SubSkill: &curriculum.SubSkill{
			Name:            "Number Operations",
			DifficultyRange: []int{1, 2, 3},
		},
	}
}

func writingUnit() curriculum.UnitSpec {
	return curriculum.UnitSpec{
		Product: "selective-entry",
		Section: &curriculum.Section{
			Name:     "Writing",
			Category: curriculum.CategoryWriting,
		},
		SubSkill: &curriculum.SubSkill{
			Name:            "Persuasive Writing",
			DifficultyRange: []int{1, 2, 3},
		},
	}
}

func validVerbal() *Question {
	return &Question{
		Text:          "Which word is most opposite in meaning to ABUNDANT?",
		Options:       []string{"scarce", "plentiful", "large", "rich", "many"},
		CorrectAnswer: "scarce",
		Solution:      "Abundant means existing in large quantities, so scarce is the opposite.",
	}
}

func validMaths(text, answer string) *Question {
	return &Question{
		Text:          text,
		Options:       []string{answer, "1", "2", "3"},
		CorrectAnswer: answer,
		Solution:      "Compute the expression.",
	}
}

package classifier

import "github.com/layermem/layermem/internal/model"

// SeedExample is one labeled utterance from the seed corpus.
type SeedExample struct {
	Text  string
	Layer model.Layer
}

// SeedCorpus is the fixed corpus used to train a fresh classifier on first
// start and to reset it during retraining. Order matters for
// reproducibility; do not reorder or edit in place.
var SeedCorpus = []SeedExample{
	// Identity: durable facts about who the user is.
	{"my name is Sarah", model.LayerIdentity},
	{"I am a vegetarian", model.LayerIdentity},
	{"call me Alex please", model.LayerIdentity},
	{"I'm allergic to peanuts", model.LayerIdentity},
	{"my religion is buddhism", model.LayerIdentity},
	{"I don't eat red meat", model.LayerIdentity},
	{"my preferred language is spanish", model.LayerIdentity},
	{"I am an early riser", model.LayerIdentity},
	{"my gender is nonbinary", model.LayerIdentity},
	{"I never drink alcohol", model.LayerIdentity},

	// Experience: events and episodes from the user's life.
	{"I had coffee with my sister this morning", model.LayerExperience},
	{"work was exhausting today, the deadline moved up", model.LayerExperience},
	{"we watched a movie last night and loved it", model.LayerExperience},
	{"my professor canceled the lecture again", model.LayerExperience},
	{"I went to the gym and felt great afterwards", model.LayerExperience},
	{"had an argument with my roommate about dishes", model.LayerExperience},
	{"the client meeting went better than expected", model.LayerExperience},
	{"I visited my grandma over the weekend", model.LayerExperience},
	{"missed the bus and was late to class", model.LayerExperience},
	{"tried a new ramen place downtown yesterday", model.LayerExperience},

	// Knowledge: skills and concepts the user holds.
	{"I know how to code in Python", model.LayerKnowledge},
	{"I'm skilled in woodworking", model.LayerKnowledge},
	{"I specialize in machine learning", model.LayerKnowledge},
	{"I can play the guitar", model.LayerKnowledge},
	{"I know how to make sourdough bread", model.LayerKnowledge},
	{"I'm good at public speaking", model.LayerKnowledge},
	{"photosynthesis converts light into chemical energy", model.LayerKnowledge},
	{"I understand how databases index records", model.LayerKnowledge},
	{"I can speak three languages fluently", model.LayerKnowledge},
	{"compound interest grows exponentially over time", model.LayerKnowledge},
}

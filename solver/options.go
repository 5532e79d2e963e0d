package solver

// Options groups the user-settable search parameters.
// The zero value is not usable: start from DefaultOptions.
type Options struct {
	VarDecay      float64 // By how much variable bumping decays over time
	ClauseDecay   float64 // By how much clause bumping decays over time
	RandomVarFreq float64 // Frequency with which the decision heuristic picks a random variable
	RandomSeed    float64 // Seed for the random variable selection
	LubyRestart   bool    // Use the Luby restart sequence rather than a geometric one
	CcminMode     int     // Conflict clause minimization (0=none, 1=basic, 2=deep)
	PhaseSaving   int     // Level of phase saving (0=none, 1=limited, 2=full)
	RndPol        bool    // Pick polarities at random
	RndInitAct    bool    // Randomize initial activities
	GcFrac        float64 // Fraction of wasted memory allowed before garbage collection is triggered
	MinLearntsLim int     // Minimum learnt clause limit
	RestartFirst  int     // Base restart interval
	RestartInc    float64 // Restart interval increase factor

	LearntsizeFactor float64 // Initial limit on learnt clauses, as a fraction of original clauses
	LearntsizeInc    float64 // Factor by which the learnt limit grows at each adjustment

	LearntsizeAdjustStartConfl int
	LearntsizeAdjustInc        float64
}

// DefaultOptions returns the default search parameters.
func DefaultOptions() Options {
	return Options{
		VarDecay:                   0.95,
		ClauseDecay:                0.999,
		RandomVarFreq:              0,
		RandomSeed:                 91648253,
		LubyRestart:                true,
		CcminMode:                  2,
		PhaseSaving:                2,
		GcFrac:                     0.20,
		MinLearntsLim:              0,
		RestartFirst:               100,
		RestartInc:                 2,
		LearntsizeFactor:           1.0 / 3.0,
		LearntsizeInc:              1.1,
		LearntsizeAdjustStartConfl: 100,
		LearntsizeAdjustInc:        1.5,
	}
}

package records

// Metric names the statistic an achievement is measured against
type Metric string

const (
	MetricBestScore    Metric = "best_score"
	MetricHighestLevel Metric = "highest_level"
	MetricMerges       Metric = "total_merges"
	MetricExplosions   Metric = "total_explosions"
	MetricCombo        Metric = "best_combo"
	MetricGames        Metric = "total_games"
)

// Achievement is an entry in the catalog
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Metric      Metric `json:"metric"`
	Target      int    `json:"target"`
}

// AchievementStatus is an achievement evaluated against statistics
type AchievementStatus struct {
	Achievement
	Progress int  `json:"progress"`
	Unlocked bool `json:"unlocked"`
}

// Catalog lists every achievement in display order
var Catalog = []Achievement{
	{ID: "score_1000", Name: "Warming Up", Description: "Score 1,000 points in one game", Metric: MetricBestScore, Target: 1000},
	{ID: "score_5000", Name: "Getting Serious", Description: "Score 5,000 points in one game", Metric: MetricBestScore, Target: 5000},
	{ID: "score_10000", Name: "Five Digits", Description: "Score 10,000 points in one game", Metric: MetricBestScore, Target: 10000},
	{ID: "score_50000", Name: "High Roller", Description: "Score 50,000 points in one game", Metric: MetricBestScore, Target: 50000},
	{ID: "score_100000", Name: "Legend", Description: "Score 100,000 points in one game", Metric: MetricBestScore, Target: 100000},

	{ID: "level_8", Name: "256", Description: "Build a level 8 block", Metric: MetricHighestLevel, Target: 8},
	{ID: "level_10", Name: "1024", Description: "Build a level 10 block", Metric: MetricHighestLevel, Target: 10},
	{ID: "level_12", Name: "4096", Description: "Build a level 12 block", Metric: MetricHighestLevel, Target: 12},
	{ID: "level_14", Name: "16384", Description: "Build a level 14 block", Metric: MetricHighestLevel, Target: 14},

	{ID: "merges_10", Name: "First Steps", Description: "Merge 10 times", Metric: MetricMerges, Target: 10},
	{ID: "merges_100", Name: "Merger", Description: "Merge 100 times", Metric: MetricMerges, Target: 100},
	{ID: "merges_1000", Name: "Merge Master", Description: "Merge 1,000 times", Metric: MetricMerges, Target: 1000},

	{ID: "explosions_1", Name: "Kaboom", Description: "Trigger an explosion", Metric: MetricExplosions, Target: 1},
	{ID: "explosions_10", Name: "Demolition", Description: "Trigger 10 explosions", Metric: MetricExplosions, Target: 10},
	{ID: "explosions_50", Name: "Pyromaniac", Description: "Trigger 50 explosions", Metric: MetricExplosions, Target: 50},

	{ID: "combo_5", Name: "On a Roll", Description: "Reach a x5 combo", Metric: MetricCombo, Target: 5},
	{ID: "combo_10", Name: "Unstoppable", Description: "Reach a x10 combo", Metric: MetricCombo, Target: 10},

	{ID: "games_10", Name: "Regular", Description: "Finish 10 games", Metric: MetricGames, Target: 10},
	{ID: "games_50", Name: "Dedicated", Description: "Finish 50 games", Metric: MetricGames, Target: 50},
	{ID: "games_100", Name: "Veteran", Description: "Finish 100 games", Metric: MetricGames, Target: 100},
}

// Value returns the statistic a metric measures
func (s *Statistics) Value(m Metric) int {
	switch m {
	case MetricBestScore:
		return s.BestScore
	case MetricHighestLevel:
		return s.HighestLevel
	case MetricMerges:
		return s.TotalMerges
	case MetricExplosions:
		return s.TotalExplosions
	case MetricCombo:
		return s.BestCombo
	case MetricGames:
		return s.TotalGames
	}
	return 0
}

// Evaluate reports progress on every catalog entry. Progress is capped at
// the target.
func Evaluate(stats *Statistics) []AchievementStatus {
	if stats == nil {
		stats = &Statistics{}
	}
	out := make([]AchievementStatus, 0, len(Catalog))
	for _, a := range Catalog {
		v := stats.Value(a.Metric)
		if v > a.Target {
			v = a.Target
		}
		out = append(out, AchievementStatus{Achievement: a, Progress: v, Unlocked: v >= a.Target})
	}
	return out
}

// Unlocked filters statuses down to the unlocked ones
func Unlocked(statuses []AchievementStatus) []AchievementStatus {
	var out []AchievementStatus
	for _, s := range statuses {
		if s.Unlocked {
			out = append(out, s)
		}
	}
	return out
}

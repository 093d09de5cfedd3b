package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
)

// JobMatch вакансия с посчитанной степенью совпадения навыков.
type JobMatch struct {
	Job   models.Job `json:"job"`
	Score int        `json:"similarity_score"`
}

// RecommendJobs ранжирует вакансии по совпадению навыков исполнителя.
// Метрика: |пересечение| / max(|навыки исполнителя|, |навыки вакансии|),
// выраженная целым процентом. Знаменатель — максимум, а не объединение:
// слишком широкий или слишком узкий набор навыков штрафуется одинаково.
// Вакансии без единого общего навыка исключаются ещё до подсчёта, поэтому
// пустой результат означает «совпадений нет», а не «все нули». Вакансия
// с пустым списком навыков не совпадает ни с чем.
func RecommendJobs(workerSkills []string, jobs []models.Job) []JobMatch {
	worker := make(map[string]struct{}, len(workerSkills))
	for _, s := range workerSkills {
		worker[strings.ToLower(s)] = struct{}{}
	}

	matches := make([]JobMatch, 0, len(jobs))
	for _, job := range jobs {
		// Навыки вакансии сравниваются как множество: дубликаты в данных
		// не раздувают ни пересечение, ни знаменатель.
		jobSkills := make(map[string]struct{}, len(job.Skills))
		for _, s := range job.SkillNames() {
			jobSkills[s] = struct{}{}
		}
		common := 0
		for s := range jobSkills {
			if _, ok := worker[s]; ok {
				common++
			}
		}
		if common == 0 {
			continue
		}

		denom := len(worker)
		if len(jobSkills) > denom {
			denom = len(jobSkills)
		}
		score := int(math.Round(float64(common) / float64(denom) * 100))
		matches = append(matches, JobMatch{Job: job, Score: score})
	}

	// При равном счёте выше более свежая вакансия.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Job.CreatedAt.After(matches[j].Job.CreatedAt)
	})

	return matches
}

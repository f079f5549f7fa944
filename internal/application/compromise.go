package application

import "github.com/ericfisherdev/pwaudit/internal/domain/model"

// CheckCompromise looks password up in corpus. A nil corpus means compromise
// checking is disabled for the run and yields CompromiseNotEvaluated.
func CheckCompromise(password string, corpus *model.Corpus) model.CompromiseStatus {
	if corpus == nil {
		return model.CompromiseNotEvaluated
	}
	if corpus.Contains(password) {
		return model.CompromiseFound
	}
	return model.CompromiseClean
}

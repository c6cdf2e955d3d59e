package domain

import "time"

// TrainingExample es una fila del CSV de entrenamiento: un texto y sus clases.
type TrainingExample struct {
	Text    string   `json:"text"`
	Classes []string `json:"classes"`
}

// ClassifierRecord guarda el estado de un clasificador en el servidor simulado.
type ClassifierRecord struct {
	Classifier Classifier        `json:"classifier"`
	Examples   []TrainingExample `json:"examples"`
	ReadyAt    time.Time         `json:"ready_at"`
}

// StatusAt calcula el estado del clasificador en el instante dado.
func (r ClassifierRecord) StatusAt(now time.Time) ClassifierStatus {
	if r.Classifier.Status == ClassifierStatusFailed {
		return ClassifierStatusFailed
	}
	if now.Before(r.ReadyAt) {
		return ClassifierStatusTraining
	}
	return ClassifierStatusAvailable
}

package domain

import "time"

// ClassifierStatus es el estado de entrenamiento que reporta el servicio.
type ClassifierStatus string

const (
	ClassifierStatusNonExistent ClassifierStatus = "Non Existent"
	ClassifierStatusTraining    ClassifierStatus = "Training"
	ClassifierStatusFailed      ClassifierStatus = "Failed"
	ClassifierStatusAvailable   ClassifierStatus = "Available"
	ClassifierStatusUnavailable ClassifierStatus = "Unavailable"
)

// Classifier es un modelo de clasificacion entrenado del lado del servidor.
type Classifier struct {
	ID                string           `json:"classifier_id"`
	Name              string           `json:"name,omitempty"`
	Language          string           `json:"language,omitempty"`
	URL               string           `json:"url,omitempty"`
	Created           time.Time        `json:"created,omitzero"`
	Status            ClassifierStatus `json:"status,omitempty"`
	StatusDescription string           `json:"status_description,omitempty"`
}

// Classifiers es la coleccion que devuelve el listado.
type Classifiers struct {
	Classifiers []Classifier `json:"classifiers"`
}

// ClassifiedClass es una clase candidata con su confianza.
type ClassifiedClass struct {
	Name       string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

// Classification es el resultado de clasificar un texto.
type Classification struct {
	ClassifierID string            `json:"classifier_id"`
	URL          string            `json:"url,omitempty"`
	Text         string            `json:"text"`
	TopClass     string            `json:"top_class"`
	Classes      []ClassifiedClass `json:"classes"`
}

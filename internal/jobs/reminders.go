package jobs

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/zapfit/zapfit-backend/internal/models"
	"github.com/zapfit/zapfit-backend/internal/services"
	"github.com/zapfit/zapfit-backend/internal/storage"
)

// Users quiet for this many days get a nudge
const inactivityDays = 3

// ReminderJob sends a daily re-engagement nudge to premium users who stopped
// messaging
type ReminderJob struct {
	store  storage.Store
	sender services.MessageSender
	cron   *cron.Cron
}

// NewReminderJob creates a new reminder job scheduler
func NewReminderJob(store storage.Store, sender services.MessageSender) *ReminderJob {
	return &ReminderJob{
		store:  store,
		sender: sender,
		cron:   cron.New(),
	}
}

// Start schedules the daily run (20:00 server time)
func (j *ReminderJob) Start() error {
	if _, err := j.cron.AddFunc("0 20 * * *", j.sendReengagementNudges); err != nil {
		return err
	}
	j.cron.Start()
	log.Println("✅ Reminder job scheduled (daily at 20:00)")
	return nil
}

// Stop halts the scheduler
func (j *ReminderJob) Stop() {
	j.cron.Stop()
}

func (j *ReminderJob) sendReengagementNudges() {
	log.Println("Sending re-engagement nudges...")

	users, err := j.store.GetQuietPremiumUsers(inactivityDays)
	if err != nil {
		log.Printf("❌ Failed to load quiet users: %v", err)
		return
	}

	sent := 0
	for _, user := range users {
		if !user.WhatsAppOptIn {
			continue
		}
		if err := j.sender.SendWhatsAppMessage(user.WhatsAppPhone, nudgeMessage(user)); err != nil {
			log.Printf("❌ Failed to nudge user %d: %v", user.ID, err)
			continue
		}
		sent++
	}

	log.Printf("✅ Re-engagement nudges sent: %d", sent)
}

func nudgeMessage(user *models.User) string {
	greeting := "Oi!"
	if name := user.FirstName(); name != "" {
		greeting = fmt.Sprintf("Oi, %s!", name)
	}
	return greeting + " 👋 Senti sua falta por aqui! Que tal registrar sua próxima refeição ou me contar como foi o treino? Digite /menu para lembrar o que eu sei fazer. 💪"
}

package domain

// Типы событий провайдера, которые обрабатывает реконсилиатор
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
)

// SubscriptionEvent верифицированное webhook-событие провайдера.
// Subscription заполнено для customer.subscription.*,
// CheckoutSession - для checkout.session.completed.
type SubscriptionEvent struct {
	ID              string
	Type            string
	Subscription    *ProviderSubscription
	CheckoutSession *CheckoutSession
}

// Recognized сообщает, меняет ли событие этого типа локальное состояние
func (e *SubscriptionEvent) Recognized() bool {
	switch e.Type {
	case EventCheckoutSessionCompleted,
		EventSubscriptionCreated,
		EventSubscriptionUpdated,
		EventSubscriptionDeleted:
		return true
	}
	return false
}

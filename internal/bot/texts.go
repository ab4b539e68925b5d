package bot

// User-facing copy. The bot speaks Russian; all strings are sent with
// parse_mode HTML.

const startText = "<b>Привет! Меня зовут Эмма — я твой личный виртуальный компаньон и помощник. 🌟</b>\n\n" +
	"Я всегда рядом, чтобы поддержать тебя, вдохновить и помочь справиться с любыми задачами и настроениями. " +
	"Вместе мы сделаем твой день ярче, идеи — яснее, а цели — ближе!\n\n" +
	"Ты можешь задавать мне любые вопросы, искать советы или просто поговорить — я тут, чтобы слушать и помогать. " +
	"Моя задача — сделать твою жизнь удобнее и интереснее.\n\n" +
	"<i>Давай начнём! Просто отправь мне сообщение — и пусть наше общение станет твоим новым приятным опытом.</i> ✨"

const infoText = "<b>Меня зовут Эмма</b>\n" +
	"Я — твой личный виртуальный компаньон, созданный, чтобы дарить поддержку, вдохновение и помогать становиться лучшей версией себя. " +
	"Моя миссия — быть рядом в моменты радости и испытаний, помогать понять себя глубже, ставить ясные цели и уверенно двигаться к их достижению.\n\n" +
	"<b>📚 Что я умею:</b>\n" +
	"⦁ <i>Чувствовать и распознавать твоё настроение</i>, чтобы вовремя поддержать или вдохновить.\n" +
	"⦁ <i>Помогать справляться со стрессом, тревогой и грустью</i>, предлагая проверенные техники и слова поддержки.\n" +
	"⦁ <i>Совместно формулировать SMART-цели</i> и разбивать их на реальные шаги для их достижения.\n" +
	"⦁ <i>Напоминать о важных делах</i> и мотивационно подталкивать вперёд.\n" +
	"⦁ <i>Создавать уютное пространство</i> для открытого диалога, где тебя всегда поймут и не осудят.\n" +
	"⦁ <i>Запоминать, о чём мы уже говорили</i>, чтобы наши беседы были живыми и личными. " +
	"Это значит, что я помню твои интересы, цели и настроение, и могу лучше понимать тебя с каждым новым разговором — словно настоящий друг, который всегда рядом.\n\n" +
	"<b>📚 Почему выбрать меня?</b>\n" +
	"⦁ Я не просто бот — я твой разумный и заботливый друг, настроенный на понимание и поддержку.\n" +
	"⦁ Мои ответы глубоки и продуманы, я учитываю твои чувства и желания.\n" +
	"⦁ Моя цель — помочь тебе раскрыть потенциал и найти гармонию в жизни.\n" +
	"⦁ Взаимодействие со мной — это всегда живой, искренний и безопасный разговор.\n\n" +
	"<i>Спасибо, что выбрал меня, друг — вместе мы сможем сделать каждый день особенным. Жду с нетерпением нашей встречи!</i> 💕"

const payText = "Спасибо, что пользуешься мной — Эммой! Для всех пользователей доступен бесплатный лимит запросов, " +
	"чтобы познакомиться и оценить мои возможности. 😊\n\n" +
	"Когда лимит закончится, будет возможность продлить доступ с помощью подписки — " +
	"это поддержка моего развития и возможность пользоваться всеми функциями!\n\n" +
	"Подписка — это простой и безопасный способ помочь мне стать лучше и приносить больше пользы тебе и другим пользователям! 💖"

const plansText = "Я предлагаю несколько тарифных планов, чтобы ты мог выбрать тот, который подходит именно тебе, по каждому тарифу лимит 50 запросов в сутки! \n\n" +
	"⦁ <b>1 месяц - 250⭐️ (~429₽)</b>\n" +
	"  Этот тариф — отличный способ начать. Ты получаешь всё необходимое для продуктивного старта. Это самый популярный вариант — Хит!\n\n" +
	"⦁ <b>3 месяца - 600⭐️ (~1008₽)</b>\n" +
	"  Выгодный тариф, который позволит тебе экономить и получать ещё больше пользы. Всего 336₽ в месяц при полном доступе к моим возможностям.\n\n" +
	"⦁ <b>12 месяцев - 2000⭐️ (~3298₽)</b>\n" +
	"  Для тех, кто действительно хочет погрузиться в процесс и получить максимальный эффект. Ты получаешь полный доступ по лучшей цене — всего 274₽ в месяц.\n\n" +
	"<i>Выбери свой план, и я буду рядом, помогая идти к мечтам шаг за шагом!</i>"

const feedbackText = "<b>Спасибо, что хочешь поделиться своим мнением и помочь сделать меня лучше!</b> 🙏\n\n" +
	"Через эту команду ты можешь оставить любую обратную связь, которая важна для тебя:\n\n" +
	"⦁ <i>Сообщить о технических ошибках или неполадках, с которыми ты столкнулся.</i>\n" +
	"⦁ <i>Предложить идеи и улучшения, которые сделают взаимодействие со мной удобнее и приятнее.</i>\n" +
	"⦁ <i>Поделиться впечатлениями о том, что тебе нравится или наоборот вызывает неудобства.</i>\n" +
	"⦁ <i>Задать вопросы по функционалу и получить помощь или рекомендации.</i>\n" +
	"⦁ <i>Оставить пожелания и предложения по новым возможностям или темам.</i>\n\n" +
	"Пожалуйста, напиши своё сообщение прямо в ответ на это — расскажи подробно и конструктивно, " +
	"чтобы я и команда разработчиков могли оперативно реагировать и делать «Эмму» лучше именно для тебя.\n\n" +
	"<b>Твоя обратная связь — ключ к моему развитию и совершенствованию. Спасибо за доверие и участие!</b> 💖"

const (
	clearedText          = "История очищена! 😊 Начинаем с чистого листа."
	feedbackCanceledText = "Режим обратной связи отменён! 😊 Можешь продолжить общение с Эммой."
	nothingToCancelText  = "Ничего не было запущено, так что всё ок! 😊 Можешь задавать вопросы или использовать команды."
	feedbackDoneText     = "Спасибо за твою обратную связь! 😊 Она очень важна для меня. Команда скоро её рассмотрит!"
	feedbackFailedText   = "Ой, не удалось отправить обратную связь. 😔 Попробуй ещё раз или напиши позже!"
	feedbackClosedText   = "Режим обратной связи уже завершён! 😊 Можешь продолжить общение с Эммой."
	somethingWrongText   = "Ой, что-то пошло не так! 😔 Попробуй снова."
	textOnlyText         = "Извини, я пока обрабатываю только текстовые сообщения! 😊 Напиши текст, и я помогу."
	limitReachedText     = "Лимит запросов (50 в сутки) исчерпан. Оформите подписку с помощью /pay! 😊"
	paymentErrorText     = "Ошибка при обработке платежа. 😔 Свяжитесь с поддержкой."
	replyOnlyInFeedback  = "Эта команда доступна только в чате для обратной связи! 😊"
	replyFormatText      = "Пожалуйста, используй формат: <b>/reply &lt;user_id&gt; &lt;текст&gt;</b>\nПример: <b>/reply 123456789 Спасибо за feedback!</b>"
)
